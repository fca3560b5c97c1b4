package model

import "time"

// HoldType tags the purpose of a reservation.
type HoldType string

const (
	HoldCart     HoldType = "cart"
	HoldCheckout HoldType = "checkout"
)

// Reservation is a temporary hold against a product's available stock.
type Reservation struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id,omitempty"`
	Type      HoldType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the hold is past its expiry at the given time.
func (r *Reservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
