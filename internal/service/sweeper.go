package service

import (
	"context"
	"log"
	"sync"
	"time"

	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/repository"
)

// SweeperConfig holds configuration for the sweep scheduler.
type SweeperConfig struct {
	// SweepInterval is how often expired reservations are released.
	// Default: 1 minute
	SweepInterval time.Duration

	// StaleThreshold is the age past which persisted snapshot rows are
	// pruned. Default: 30 days
	StaleThreshold time.Duration

	// PruneInterval is how often the stale-row prune runs.
	// Default: 24 hours
	PruneInterval time.Duration
}

// DefaultSweeperConfig returns default sweep configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		SweepInterval:  1 * time.Minute,
		StaleThreshold: 30 * 24 * time.Hour,
		PruneInterval:  24 * time.Hour,
	}
}

// Sweeper periodically releases expired reservations on the manager
// and prunes stale snapshot rows from the repository. Expiry is
// enforced by this active sweep only; reads never check freshness.
type Sweeper struct {
	manager   *inventory.Manager
	repo      repository.SnapshotRepository
	config    SweeperConfig
	ticker    *time.Ticker
	pruner    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSweeper creates a new sweep scheduler. repo may be nil, in which
// case only reservation expiry runs.
func NewSweeper(manager *inventory.Manager, repo repository.SnapshotRepository, config SweeperConfig) *Sweeper {
	def := DefaultSweeperConfig()
	if config.SweepInterval == 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.StaleThreshold == 0 {
		config.StaleThreshold = def.StaleThreshold
	}
	if config.PruneInterval == 0 {
		config.PruneInterval = def.PruneInterval
	}

	return &Sweeper{
		manager: manager,
		repo:    repo,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the sweep scheduler.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.SweepInterval)
	s.pruner = time.NewTicker(s.config.PruneInterval)
	s.mu.Unlock()

	log.Printf("[Sweeper] Started - sweep: %v, prune: %v (threshold: %v)",
		s.config.SweepInterval, s.config.PruneInterval, s.config.StaleThreshold)

	go s.run()
}

func (s *Sweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.manager.SweepExpired()
		case <-s.pruner.C:
			s.runPrune()
		case <-s.stopCh:
			log.Printf("[Sweeper] Stopped")
			return
		}
	}
}

func (s *Sweeper) runPrune() {
	if s.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := s.repo.DeleteStale(ctx, s.config.StaleThreshold)
	if err != nil {
		log.Printf("[Sweeper] Error during prune: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[Sweeper] Pruned %d stale snapshot rows", deleted)
	}
}

// Stop stops the sweep scheduler.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		if s.pruner != nil {
			s.pruner.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep and returns the number released.
func (s *Sweeper) RunNow() int {
	return s.manager.SweepExpired()
}
