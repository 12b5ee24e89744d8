package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentHistory is an append-only log. Amounts are stored in Stripe's
// integer cents and converted to dollars only at the response edge.
type PaymentHistory struct {
	ID                    string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID                string        `json:"userId" gorm:"type:uuid;not null;index"`
	SubscriptionID        string        `json:"subscriptionId"`
	StripeInvoiceId       string        `json:"stripeInvoiceId"`
	StripePaymentIntentId string        `json:"stripePaymentIntentId"`
	AmountCents           int64         `json:"amountCents"`
	Currency              string        `json:"currency" gorm:"type:varchar(10);default:'usd'"`
	Status                PaymentStatus `json:"status" gorm:"type:varchar(20)"`
	Description           string        `json:"description"`
	CreatedAt             time.Time     `json:"createdAt"`
}

func (PaymentHistory) TableName() string {
	return "payment_history"
}
