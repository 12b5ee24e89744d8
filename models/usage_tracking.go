package models

import (
	"time"
)

// UsageTracking rows accumulate per-feature counters inside a billing
// period. Rows from earlier periods are pruned when an invoice payment
// succeeds.
type UsageTracking struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string    `json:"userId" gorm:"type:uuid;not null;index"`
	Feature     string    `json:"feature" gorm:"type:varchar(50)"`
	Count       int       `json:"count"`
	PeriodStart time.Time `json:"periodStart"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (UsageTracking) TableName() string {
	return "usage_tracking"
}
