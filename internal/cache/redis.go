package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"facet-inventory-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// Buffer configuration
const (
	MaxBatchSize       = 50
	FlushTimeout       = 60 * time.Second
	StaleDataThreshold = 1 * time.Hour
	CleanupInterval    = 5 * time.Minute
)

// FlushFunc is called to persist buffered snapshot rows to the database.
type FlushFunc func(ctx context.Context, recs []model.SnapshotRecord) error

// The buffered value may have been rewritten by a newer update while a
// flush was in flight; only delete it when it is still the flushed one.
var deleteIfUnchangedScript = redis.NewScript(`
	if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
		redis.call("HDEL", KEYS[1], ARGV[1])
		redis.call("SREM", KEYS[2], ARGV[1])
		return 1
	else
		return 0
	end
`)

// RedisSnapshotBuffer uses Redis for write-behind persistence of stock
// snapshots: updates land in a hash plus a pending set and flush to
// the snapshot repository in batches.
type RedisSnapshotBuffer struct {
	client        *redis.Client
	flushFunc     FlushFunc
	flushTicker   *time.Ticker
	cleanupTicker *time.Ticker
	stopFlush     chan struct{}
	stopOnce      sync.Once
	keyPrefix     string
}

// RedisBufferConfig holds configuration for the snapshot buffer.
type RedisBufferConfig struct {
	Addr          string
	Password      string
	DB            int
	FlushInterval time.Duration
	KeyPrefix     string
}

// NewRedisSnapshotBuffer creates a Redis-backed snapshot buffer.
func NewRedisSnapshotBuffer(cfg RedisBufferConfig, flushFunc FlushFunc) (*RedisSnapshotBuffer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "facet:stock"
	}

	b := &RedisSnapshotBuffer{
		client:        client,
		flushFunc:     flushFunc,
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopFlush:     make(chan struct{}),
		keyPrefix:     keyPrefix,
	}

	go b.backgroundFlush()
	go b.backgroundCleanup()

	log.Printf("[RedisSnapshotBuffer] Started - DB:%d, prefix:%s, flush:%v, batch:%d",
		cfg.DB, keyPrefix, cfg.FlushInterval, MaxBatchSize)
	return b, nil
}

func (b *RedisSnapshotBuffer) bufferKey() string {
	return b.keyPrefix + ":buffer"
}

func (b *RedisSnapshotBuffer) pendingKey() string {
	return b.keyPrefix + ":pending"
}

// Add buffers a snapshot row in Redis.
func (b *RedisSnapshotBuffer) Add(ctx context.Context, rec model.SnapshotRecord) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := b.client.Pipeline()
	pipe.HSet(ctx, b.bufferKey(), rec.ProductID, jsonData)
	pipe.SAdd(ctx, b.pendingKey(), rec.ProductID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves a buffered snapshot row from Redis, or nil when absent.
func (b *RedisSnapshotBuffer) Get(ctx context.Context, productID string) (*model.SnapshotRecord, error) {
	data, err := b.client.HGet(ctx, b.bufferKey(), productID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec model.SnapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Count returns the number of pending rows.
func (b *RedisSnapshotBuffer) Count(ctx context.Context) (int64, error) {
	return b.client.SCard(ctx, b.pendingKey()).Result()
}

// FlushBatch writes up to MaxBatchSize rows to the repository.
func (b *RedisSnapshotBuffer) FlushBatch(ctx context.Context) (int, error) {
	productIDs, err := b.client.SRandMemberN(ctx, b.pendingKey(), MaxBatchSize).Result()
	if err != nil {
		return 0, err
	}

	if len(productIDs) == 0 {
		return 0, nil
	}

	totalPending, _ := b.Count(ctx)
	log.Printf("[RedisSnapshotBuffer] Flushing %d/%d rows", len(productIDs), totalPending)

	recs := make([]model.SnapshotRecord, 0, len(productIDs))
	originalData := make(map[string]string)

	for _, productID := range productIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), productID).Bytes()
		if err == redis.Nil {
			b.client.SRem(ctx, b.pendingKey(), productID)
			continue
		}
		if err != nil {
			log.Printf("[RedisSnapshotBuffer] Error getting %s: %v", productID, err)
			continue
		}

		originalData[productID] = string(data)

		var rec model.SnapshotRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("[RedisSnapshotBuffer] Error unmarshaling %s: %v", productID, err)
			b.client.HDel(ctx, b.bufferKey(), productID)
			b.client.SRem(ctx, b.pendingKey(), productID)
			continue
		}
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		return 0, nil
	}

	if err := b.flushFunc(ctx, recs); err != nil {
		log.Printf("[RedisSnapshotBuffer] Flush error: %v", err)
		return 0, err
	}

	pipe := b.client.Pipeline()
	for productID, raw := range originalData {
		deleteIfUnchangedScript.Run(ctx, pipe, []string{b.bufferKey(), b.pendingKey()}, productID, raw)
	}
	if _, err = pipe.Exec(ctx); err != nil {
		log.Printf("[RedisSnapshotBuffer] Error clearing Redis: %v", err)
	}

	log.Printf("[RedisSnapshotBuffer] Successfully flushed %d rows", len(recs))
	return len(recs), nil
}

// Flush writes one batch of buffered rows to the repository.
func (b *RedisSnapshotBuffer) Flush(ctx context.Context) error {
	_, err := b.FlushBatch(ctx)
	return err
}

// CleanupStale removes buffered rows older than StaleDataThreshold.
func (b *RedisSnapshotBuffer) CleanupStale(ctx context.Context) (int, error) {
	productIDs, err := b.client.SMembers(ctx, b.pendingKey()).Result()
	if err != nil {
		return 0, err
	}

	if len(productIDs) == 0 {
		return 0, nil
	}

	staleThreshold := time.Now().Add(-StaleDataThreshold)
	staleCount := 0
	pipe := b.client.Pipeline()

	for _, productID := range productIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), productID).Bytes()
		if err == redis.Nil {
			pipe.SRem(ctx, b.pendingKey(), productID)
			continue
		}
		if err != nil {
			continue
		}

		var rec model.SnapshotRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			pipe.HDel(ctx, b.bufferKey(), productID)
			pipe.SRem(ctx, b.pendingKey(), productID)
			staleCount++
			continue
		}

		if rec.UpdatedAt.Before(staleThreshold) {
			pipe.HDel(ctx, b.bufferKey(), productID)
			pipe.SRem(ctx, b.pendingKey(), productID)
			staleCount++
		}
	}

	if staleCount > 0 {
		if _, err = pipe.Exec(ctx); err != nil {
			log.Printf("[RedisSnapshotBuffer] Cleanup exec error: %v", err)
			return 0, err
		}
		log.Printf("[RedisSnapshotBuffer] Cleaned up %d stale rows", staleCount)
	}

	return staleCount, nil
}

func (b *RedisSnapshotBuffer) backgroundFlush() {
	for {
		select {
		case <-b.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
			if _, err := b.FlushBatch(ctx); err != nil {
				log.Printf("[RedisSnapshotBuffer] Background flush error: %v", err)
			}
			cancel()
		case <-b.stopFlush:
			log.Printf("[RedisSnapshotBuffer] Shutdown: flushing remaining rows...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			for {
				flushed, err := b.FlushBatch(ctx)
				if err != nil {
					log.Printf("[RedisSnapshotBuffer] Shutdown flush error: %v", err)
					break
				}
				if flushed == 0 {
					break
				}
			}
			cancel()
			log.Printf("[RedisSnapshotBuffer] Shutdown flush complete")
			return
		}
	}
}

func (b *RedisSnapshotBuffer) backgroundCleanup() {
	for {
		select {
		case <-b.cleanupTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.CleanupStale(ctx)
			cancel()
		case <-b.stopFlush:
			return
		}
	}
}

// Close stops the buffer and performs a final flush.
func (b *RedisSnapshotBuffer) Close() error {
	b.stopOnce.Do(func() {
		b.flushTicker.Stop()
		b.cleanupTicker.Stop()
		close(b.stopFlush)
	})
	return b.client.Close()
}
