package models

import (
	"time"
)

// PricingTier is the static plan catalog, seeded at migration time.
type PricingTier struct {
	ID                string           `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name              SubscriptionTier `json:"name" gorm:"type:varchar(20);uniqueIndex;not null"`
	DisplayName       string           `json:"displayName"`
	PriceMonthlyCents int64            `json:"priceMonthlyCents"`
	PriceYearlyCents  int64            `json:"priceYearlyCents"`
	Description       string           `json:"description"`
	Active            bool             `json:"active" gorm:"default:true"`
	SortOrder         int              `json:"sortOrder"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}
