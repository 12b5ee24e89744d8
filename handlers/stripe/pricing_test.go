package stripe

import (
	"testing"

	"vitalis-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestPriceIDFor_ConfiguredTier(t *testing.T) {
	t.Setenv("STRIPE_PRICE_PRO_MONTHLY", "price_pro_monthly")

	priceID, err := PriceIDFor(models.TierPro, models.BillingMonthly)

	assert.NoError(t, err)
	assert.Equal(t, "price_pro_monthly", priceID)
}

func TestPriceIDFor_MissingEnv(t *testing.T) {
	t.Setenv("STRIPE_PRICE_BASIC_YEARLY", "")

	_, err := PriceIDFor(models.TierBasic, models.BillingYearly)

	assert.Error(t, err)
}

func TestPriceIDFor_UnknownTier(t *testing.T) {
	_, err := PriceIDFor(models.TierFree, models.BillingMonthly)

	assert.Error(t, err)
}

func TestTierForPriceID_ReverseMapping(t *testing.T) {
	t.Setenv("STRIPE_PRICE_PRO_PLUS_YEARLY", "price_pp_yearly")

	tier, cycle, ok := TierForPriceID("price_pp_yearly")

	assert.True(t, ok)
	assert.Equal(t, models.TierProPlus, tier)
	assert.Equal(t, models.BillingYearly, cycle)
}

func TestTierForPriceID_Unknown(t *testing.T) {
	_, _, ok := TierForPriceID("price_nobody_configured")
	assert.False(t, ok)

	_, _, ok = TierForPriceID("")
	assert.False(t, ok)
}

func TestLimitsForTier_UnknownFallsBackToFree(t *testing.T) {
	limits := LimitsForTier(models.SubscriptionTier("platinum"))

	assert.Equal(t, LimitsForTier(models.TierFree), limits)
}

func TestLimitsForTier_ProPlusUnlimited(t *testing.T) {
	limits := LimitsForTier(models.TierProPlus)

	assert.Equal(t, -1, limits.QuickScans)
	assert.Equal(t, -1, limits.DeepDives)
	assert.Equal(t, -1, limits.PhotoSessions)
	assert.Equal(t, -1, limits.OracleChats)
}

func TestCentsToDollars(t *testing.T) {
	assert.Equal(t, 19.99, CentsToDollars(1999))
	assert.Equal(t, 0.0, CentsToDollars(0))
	assert.Equal(t, 29.0, CentsToDollars(2900))
}

func TestMapStripeStatus(t *testing.T) {
	assert.Equal(t, models.SubscriptionTrialing, mapStripeStatus("trialing"))
	assert.Equal(t, models.SubscriptionPastDue, mapStripeStatus("past_due"))
	assert.Equal(t, models.SubscriptionPastDue, mapStripeStatus("unpaid"))
	assert.Equal(t, models.SubscriptionCanceled, mapStripeStatus("canceled"))
	assert.Equal(t, models.SubscriptionActive, mapStripeStatus("active"))
}
