package models

import (
	"time"
)

// PromotionalPeriod grants temporary tier access (e.g. a launch promo).
// Any active row is deactivated when the user completes a paid checkout.
type PromotionalPeriod struct {
	ID        string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string           `json:"userId" gorm:"type:uuid;not null;index"`
	Tier      SubscriptionTier `json:"tier" gorm:"type:varchar(20)"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Active    bool             `json:"active" gorm:"default:true"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
