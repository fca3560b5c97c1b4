package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	AccountID    int64     `json:"account_id"`
	KeyID        int64     `json:"key_id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	DeviceID     string    `json:"device_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
