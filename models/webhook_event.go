package models

import (
	"time"
)

// WebhookEvent is the idempotency ledger for Stripe webhook deliveries.
// The unique index on StripeEventID is what prevents a concurrent redelivery
// from applying the same event twice: the second insert fails and the
// delivery is answered as a duplicate.
type WebhookEvent struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StripeEventID string    `json:"stripeEventId" gorm:"uniqueIndex;not null"`
	EventType     string    `json:"eventType"`
	Payload       string    `json:"payload" gorm:"type:jsonb"`
	Processed     bool      `json:"processed"`
	ErrorMessage  string    `json:"errorMessage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
