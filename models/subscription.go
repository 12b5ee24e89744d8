package models

import (
	"time"
)

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierBasic   SubscriptionTier = "basic"
	TierPro     SubscriptionTier = "pro"
	TierProPlus SubscriptionTier = "pro_plus"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Subscription rows are never hard-deleted; cancellation is a status transition.
type Subscription struct {
	ID                   string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID               string             `json:"userId" gorm:"type:uuid;not null;index"`
	StripeSubscriptionId string             `json:"stripeSubscriptionId" gorm:"uniqueIndex"`
	StripeCustomerId     string             `json:"stripeCustomerId"`
	Tier                 SubscriptionTier   `json:"tier" gorm:"type:varchar(20);default:'free'"`
	Status               SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	BillingCycle         BillingCycle       `json:"billingCycle" gorm:"type:varchar(10);default:'monthly'"`
	CurrentPeriodStart   time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time          `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool               `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}
