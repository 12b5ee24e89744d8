package stripe

import (
	"fmt"
	"os"
	"strings"
	"time"

	"vitalis-backend/db"
	"vitalis-backend/models"
)

// The price catalog lives in the environment: one Stripe price id per
// tier/cycle pair, e.g. STRIPE_PRICE_PRO_MONTHLY. The webhook path and the
// force-sync path both map price ids back to tiers through this catalog.

var paidTiers = []models.SubscriptionTier{
	models.TierBasic,
	models.TierPro,
	models.TierProPlus,
}

var billingCycles = []models.BillingCycle{
	models.BillingMonthly,
	models.BillingYearly,
}

func priceEnvKey(tier models.SubscriptionTier, cycle models.BillingCycle) string {
	return "STRIPE_PRICE_" + strings.ToUpper(string(tier)) + "_" + strings.ToUpper(string(cycle))
}

// PriceIDFor resolves the Stripe price id configured for a tier and cycle.
func PriceIDFor(tier models.SubscriptionTier, cycle models.BillingCycle) (string, error) {
	for _, t := range paidTiers {
		if t != tier {
			continue
		}
		priceID := os.Getenv(priceEnvKey(tier, cycle))
		if priceID == "" {
			return "", fmt.Errorf("no price configured for %s/%s", tier, cycle)
		}
		return priceID, nil
	}
	return "", fmt.Errorf("unknown tier %q", tier)
}

// TierForPriceID is the reverse mapping, used when a price id arrives from
// Stripe (webhook events, force-sync).
func TierForPriceID(priceID string) (models.SubscriptionTier, models.BillingCycle, bool) {
	if priceID == "" {
		return "", "", false
	}
	for _, tier := range paidTiers {
		for _, cycle := range billingCycles {
			if os.Getenv(priceEnvKey(tier, cycle)) == priceID {
				return tier, cycle, true
			}
		}
	}
	return "", "", false
}

// FeatureLimits caps monthly feature use per tier. -1 means unlimited.
type FeatureLimits struct {
	QuickScans    int `json:"quickScans"`
	DeepDives     int `json:"deepDives"`
	PhotoSessions int `json:"photoSessions"`
	OracleChats   int `json:"oracleChats"`
}

var tierLimits = map[models.SubscriptionTier]FeatureLimits{
	models.TierFree:    {QuickScans: 5, DeepDives: 1, PhotoSessions: 1, OracleChats: 10},
	models.TierBasic:   {QuickScans: 20, DeepDives: 5, PhotoSessions: 5, OracleChats: 100},
	models.TierPro:     {QuickScans: -1, DeepDives: -1, PhotoSessions: 20, OracleChats: -1},
	models.TierProPlus: {QuickScans: -1, DeepDives: -1, PhotoSessions: -1, OracleChats: -1},
}

func LimitsForTier(tier models.SubscriptionTier) FeatureLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[models.TierFree]
}

// UsageCounts are row counts over the current calendar month.
type UsageCounts struct {
	QuickScans    int64 `json:"quickScans"`
	DeepDives     int64 `json:"deepDives"`
	PhotoSessions int64 `json:"photoSessions"`
	OracleChats   int64 `json:"oracleChats"`
}

func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// MonthlyUsage counts this month's rows per feature. Flash assessments
// draw on the quick scan allowance. Each count is independently fallible
// and degrades to zero rather than failing the caller.
func MonthlyUsage(userID interface{}) UsageCounts {
	since := monthStart(time.Now())
	var usage UsageCounts

	var flashes int64
	db.DB.Model(&models.QuickScan{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&usage.QuickScans)
	db.DB.Model(&models.FlashAssessment{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&flashes)
	usage.QuickScans += flashes
	db.DB.Model(&models.DeepDive{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&usage.DeepDives)
	db.DB.Model(&models.PhotoSession{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&usage.PhotoSessions)
	db.DB.Model(&models.OracleChatMessage{}).
		Where("user_id = ? AND role = ? AND created_at >= ?", userID, models.ChatRoleUser, since).
		Count(&usage.OracleChats)

	return usage
}

// CurrentTier resolves the tier a user is entitled to right now: an
// active-like subscription first, then an unexpired promotional period,
// otherwise free.
func CurrentTier(userID interface{}) models.SubscriptionTier {
	var sub models.Subscription
	err := db.DB.
		Where("user_id = ? AND status IN ?", userID, activeLikeStatuses).
		Order("created_at DESC").
		First(&sub).Error
	if err == nil {
		return sub.Tier
	}

	var promo models.PromotionalPeriod
	err = db.DB.
		Where("user_id = ? AND active = ? AND expires_at > ?", userID, true, time.Now()).
		First(&promo).Error
	if err == nil {
		return promo.Tier
	}

	return models.TierFree
}

var activeLikeStatuses = []models.SubscriptionStatus{
	models.SubscriptionActive,
	models.SubscriptionTrialing,
	models.SubscriptionPastDue,
}

// CentsToDollars converts Stripe's integer cents to the dollar amount the
// client displays.
func CentsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
