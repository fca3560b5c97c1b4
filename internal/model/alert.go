package model

import "time"

// AlertType classifies a notable inventory condition.
type AlertType string

const (
	AlertLowStock   AlertType = "low-stock"
	AlertOutOfStock AlertType = "out-of-stock"
	AlertRestock    AlertType = "restock"
)

// AlertSeverity maps alert types to a display severity.
type AlertSeverity string

const (
	SeverityWarning AlertSeverity = "warning"
	SeverityError   AlertSeverity = "error"
	SeveritySuccess AlertSeverity = "success"
)

// Alert is a threshold-crossing event surfaced to subscribers.
// Undismissed alerts are deduplicated by (ProductID, Type).
type Alert struct {
	ID        string        `json:"id"`
	ProductID string        `json:"product_id"`
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `json:"severity"`
	Dismissed bool          `json:"dismissed"`
	CreatedAt time.Time     `json:"created_at"`
}
