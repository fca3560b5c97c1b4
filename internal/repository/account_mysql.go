package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"facet-inventory-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// GetAccountByCustomer finds the client account id for a customer.
func (r *MySQLAccountRepository) GetAccountByCustomer(ctx context.Context, customerID string) (int64, error) {
	query := `SELECT id FROM client_accounts WHERE customer_id = ? AND is_active = 1 LIMIT 1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("account not found for customer: %s", customerID)
		}
		return 0, fmt.Errorf("failed to get account: %w", err)
	}

	return id, nil
}

// ValidateKeyAndDevice validates a key+device+customer combination for
// session token generation. Returns account details if valid.
func (r *MySQLAccountRepository) ValidateKeyAndDevice(ctx context.Context, key, deviceID, customerID string) (*model.AccountValidation, error) {
	log.Printf("[AccountRepository] Validating key for customer_id=%s", customerID)

	query := `
		SELECT
			ca.id as account_id,
			ca.key_id,
			ca.customer_id,
			ca.customer_name,
			ca.device_id,
			k.status as key_status
		FROM client_accounts ca
		JOIN api_keys k ON ca.key_id = k.id
		WHERE k.api_key = ?
		  AND ca.customer_id = ?
		  AND ca.is_active = 1
		  AND LOWER(k.status) = 'active'
		LIMIT 1`

	var result model.AccountValidation
	err := r.db.QueryRowContext(ctx, query, key, customerID).Scan(
		&result.AccountID,
		&result.KeyID,
		&result.CustomerID,
		&result.CustomerName,
		&result.DeviceID,
		&result.KeyStatus,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invalid key or account not found")
		}
		return nil, fmt.Errorf("failed to validate key: %w", err)
	}

	// Pin the device on first use; reject mismatches afterwards.
	if result.DeviceID != "" && result.DeviceID != deviceID {
		return nil, fmt.Errorf("device mismatch")
	}
	if result.DeviceID == "" && deviceID != "" {
		updateQuery := `UPDATE client_accounts SET device_id = ? WHERE id = ?`
		if _, err := r.db.ExecContext(ctx, updateQuery, deviceID, result.AccountID); err != nil {
			log.Printf("[AccountRepository] Failed to update device id: %v", err)
		}
		result.DeviceID = deviceID
	}

	return &result, nil
}

// Ensure MySQLAccountRepository implements AccountRepository
var _ AccountRepository = (*MySQLAccountRepository)(nil)
