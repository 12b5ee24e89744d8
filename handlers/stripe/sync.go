package stripe

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"vitalis-backend/db"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	stripeSubscription "github.com/stripe/stripe-go/v82/subscription"
	"gorm.io/gorm"
)

// listActiveSubscriptions reads the customer's active subscriptions live
// from Stripe, bypassing the webhook path. Overridable in tests.
var listActiveSubscriptions = func(customerID string) ([]*stripe.Subscription, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("active"),
	}
	iter := stripeSubscription.List(params)
	var subs []*stripe.Subscription
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	return subs, iter.Err()
}

// ForceSyncSubscriptions reconciles local subscription rows against Stripe's
// live state. It papers over missed webhook deliveries: remote wins, row by
// row, with a per-item success/failure report.
// @Summary Force-sync subscriptions from Stripe
// @Description Re-read the user's live subscriptions from Stripe and overwrite the local rows to match
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "success, synced, errors, currentSubscriptions, message"
// @Failure 400 {object} map[string]string "error: No billing customer on file"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /subscriptions/sync [post]
func ForceSyncSubscriptions(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "User not found in ForceSyncSubscriptions")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.StripeCustomerId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No billing customer on file"})
		return
	}

	remoteSubs, err := listActiveSubscriptions(user.StripeCustomerId)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error listing subscriptions from Stripe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing subscriptions from Stripe"})
		return
	}

	synced := []string{}
	syncErrors := []string{}

	for _, remote := range remoteSubs {
		if err := syncOneSubscription(&user, remote); err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("%s: %v", remote.ID, err))
			continue
		}
		synced = append(synced, remote.ID)
	}

	var current []models.Subscription
	if err := db.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&current).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching the local subscription rows")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching subscriptions"})
		return
	}

	message := fmt.Sprintf("Synced %d subscription(s) from Stripe", len(synced))
	if len(remoteSubs) == 0 {
		message = "No active subscriptions on Stripe"
	}

	utils.LogSuccessWithUser(userID, message)
	c.JSON(http.StatusOK, gin.H{
		"success":              len(syncErrors) == 0,
		"synced":               synced,
		"errors":               syncErrors,
		"currentSubscriptions": current,
		"message":              message,
	})
}

// syncOneSubscription applies one remote subscription to the local table:
// update the matching row when it exists, insert it otherwise.
func syncOneSubscription(user *models.User, remote *stripe.Subscription) error {
	priceID := firstPriceID(remote)
	tier, cycle, tierKnown := TierForPriceID(priceID)

	var local models.Subscription
	err := db.DB.First(&local, "stripe_subscription_id = ?", remote.ID).Error

	if err == nil {
		updates := map[string]interface{}{
			"status":               mapStripeStatus(string(remote.Status)),
			"cancel_at_period_end": remote.CancelAtPeriodEnd,
		}
		if end := subscriptionPeriodEnd(remote); !end.IsZero() {
			updates["current_period_end"] = end
		}
		if tierKnown {
			updates["tier"] = tier
			updates["billing_cycle"] = cycle
		}
		return db.DB.Model(&local).Updates(updates).Error
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if !tierKnown {
		return fmt.Errorf("no tier configured for price id %q", priceID)
	}

	sub := models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionId: remote.ID,
		StripeCustomerId:     user.StripeCustomerId,
		Tier:                 tier,
		Status:               mapStripeStatus(string(remote.Status)),
		BillingCycle:         cycle,
		CurrentPeriodStart:   subscriptionPeriodStart(remote),
		CurrentPeriodEnd:     subscriptionPeriodEnd(remote),
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	}
	return db.DB.Create(&sub).Error
}

// Period bounds live on the subscription items since the 2025 Stripe API.
func subscriptionPeriodStart(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil {
		return time.Time{}
	}
	for _, item := range sub.Items.Data {
		if item.CurrentPeriodStart > 0 {
			return time.Unix(item.CurrentPeriodStart, 0)
		}
	}
	return time.Time{}
}

func subscriptionPeriodEnd(sub *stripe.Subscription) time.Time {
	if sub == nil || sub.Items == nil {
		return time.Time{}
	}
	for _, item := range sub.Items.Data {
		if item.CurrentPeriodEnd > 0 {
			return time.Unix(item.CurrentPeriodEnd, 0)
		}
	}
	return time.Time{}
}
