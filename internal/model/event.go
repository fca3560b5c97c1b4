package model

import "time"

// EventRecord is an audit row for reservation and alert activity.
type EventRecord struct {
	ID        string    `json:"id" bson:"_id"`
	Type      string    `json:"type" bson:"type"`
	ProductID string    `json:"product_id" bson:"product_id"`
	Quantity  int       `json:"quantity,omitempty" bson:"quantity,omitempty"`
	SessionID string    `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
