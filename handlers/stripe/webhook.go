package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"vitalis-backend/db"
	"vitalis-backend/models"
	"vitalis-backend/utils"
	mailsmodels "vitalis-backend/utils/mails-models"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

// fetchStripeSubscription is a live read against Stripe, overridable in tests.
var fetchStripeSubscription = func(subscriptionID string) (*stripe.Subscription, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return subscription.Get(subscriptionID, nil)
}

// StripeWebhookHandler receives billing events pushed by Stripe.
// Signature verification is the authentication mechanism for this endpoint.
// Every event id goes through the webhook_events ledger: a processed event
// is answered without reapplying its effects, and the unique index on the
// event id makes a concurrent redelivery lose its insert instead of
// double-applying.
// @Summary Stripe webhook receiver
// @Description Receive and process billing events pushed by Stripe
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "received: true"
// @Failure 400 {object} map[string]string "error: signature verification failed"
// @Failure 500 {object} map[string]string "error: processing failed"
// @Router /stripe/webhook [post]
func StripeWebhookHandler(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Impossible to read the request body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		utils.LogError(nil, "STRIPE_WEBHOOK_SECRET not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook secret not configured"})
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sig, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stripe signature verification failed"})
		return
	}

	var ledger models.WebhookEvent
	err = db.DB.Where("stripe_event_id = ?", event.ID).First(&ledger).Error
	switch {
	case err == nil:
		if ledger.Processed {
			c.JSON(http.StatusOK, gin.H{"received": true, "status": "duplicate"})
			return
		}
		// previous attempt failed, Stripe is redelivering: reprocess
	case errors.Is(err, gorm.ErrRecordNotFound):
		ledger = models.WebhookEvent{
			StripeEventID: event.ID,
			EventType:     string(event.Type),
			Payload:       string(payload),
		}
		if createErr := db.DB.Create(&ledger).Error; createErr != nil {
			// unique index hit: a concurrent delivery owns this event
			utils.LogInfo("Webhook event " + event.ID + " already claimed by a concurrent delivery")
			c.JSON(http.StatusOK, gin.H{"received": true, "status": "duplicate"})
			return
		}
	default:
		utils.LogError(err, "Error reading the webhook ledger")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading the webhook ledger"})
		return
	}

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		handleErr = handleCheckoutSessionCompleted(event)
	case "customer.subscription.updated":
		handleErr = handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		handleErr = handleSubscriptionDeleted(event)
	case "invoice.payment_succeeded":
		handleErr = handleInvoicePaymentSucceeded(event)
	case "invoice.payment_failed":
		handleErr = handleInvoicePaymentFailed(event)
	case "customer.subscription.trial_will_end":
		handleErr = handleTrialWillEnd(event)
	default:
		utils.LogInfo("Ignored Stripe event type " + string(event.Type))
	}

	if handleErr != nil {
		utils.LogError(handleErr, "Error processing Stripe event "+event.ID)
		// leave the ledger row unprocessed so Stripe's redelivery can retry it
		db.DB.Model(&ledger).Updates(map[string]interface{}{
			"error_message": handleErr.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed", "details": handleErr.Error()})
		return
	}

	db.DB.Model(&ledger).Updates(map[string]interface{}{
		"processed":     true,
		"error_message": "",
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// subscriptionEvent mirrors the fields we read from subscription payloads.
// Parsed from the raw JSON because expandable fields arrive as plain ids.
type subscriptionEvent struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

func (e subscriptionEvent) priceID() string {
	for _, item := range e.Items.Data {
		if item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

type invoiceEvent struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	AmountPaid    int64  `json:"amount_paid"`
	AmountDue     int64  `json:"amount_due"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"payment_intent"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// subscriptionID handles both the legacy top-level field and the newer
// parent.subscription_details location.
func (e invoiceEvent) subscriptionID() string {
	if e.Parent != nil && e.Parent.SubscriptionDetails != nil && e.Parent.SubscriptionDetails.Subscription != "" {
		return e.Parent.SubscriptionDetails.Subscription
	}
	return e.Subscription
}

func handleCheckoutSessionCompleted(event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("error parsing CheckoutSession: %w", err)
	}

	if session.Customer == nil {
		return fmt.Errorf("checkout session without customer")
	}
	if session.Subscription == nil {
		// a subscription-mode checkout always carries one; without it there
		// is nothing to key the local row on
		return fmt.Errorf("checkout session without subscription")
	}
	stripeSubID := session.Subscription.ID

	user, err := resolveUser(session.Metadata["user_id"], session.Customer.ID)
	if err != nil {
		return err
	}

	var existing models.Subscription
	if err := db.DB.First(&existing, "stripe_subscription_id = ?", stripeSubID).Error; err == nil {
		utils.LogInfo("Subscription " + stripeSubID + " already recorded")
		return nil
	}

	liveSub, liveErr := fetchStripeSubscription(stripeSubID)
	if liveErr != nil {
		utils.LogError(liveErr, "Live subscription read failed on checkout completion, approximating the period bounds")
	}

	// our checkout endpoint stamps the price id into the session metadata;
	// fall back to the live subscription read when it is missing
	priceID := session.Metadata["price_id"]
	if priceID == "" {
		if liveSub == nil {
			return fmt.Errorf("error fetching the subscription from Stripe: %w", liveErr)
		}
		priceID = firstPriceID(liveSub)
	}

	tier, cycle, ok := TierForPriceID(priceID)
	if !ok {
		return fmt.Errorf("no tier configured for price id %q", priceID)
	}

	now := time.Now()
	periodStart := now
	periodEnd := now.AddDate(0, 1, 0)
	if cycle == models.BillingYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}
	if liveSub != nil {
		if start := subscriptionPeriodStart(liveSub); !start.IsZero() {
			periodStart = start
		}
		if end := subscriptionPeriodEnd(liveSub); !end.IsZero() {
			periodEnd = end
		}
	}

	sub := models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionId: stripeSubID,
		StripeCustomerId:     session.Customer.ID,
		Tier:                 tier,
		Status:               models.SubscriptionActive,
		BillingCycle:         cycle,
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
	}
	if err := db.DB.Create(&sub).Error; err != nil {
		return fmt.Errorf("error creating the subscription row: %w", err)
	}

	payment := models.PaymentHistory{
		UserID:         user.ID,
		SubscriptionID: sub.ID,
		AmountCents:    session.AmountTotal,
		Currency:       string(session.Currency),
		Status:         models.PaymentSucceeded,
		Description:    "Subscription checkout",
	}
	if err := db.DB.Create(&payment).Error; err != nil {
		return fmt.Errorf("error creating the payment row: %w", err)
	}

	// a paid plan supersedes any running promo
	db.DB.Model(&models.PromotionalPeriod{}).
		Where("user_id = ? AND active = ?", user.ID, true).
		Update("active", false)

	mailsmodels.SubscriptionConfirmation(user.Email, string(tier))
	utils.LogSuccessWithUser(user.ID, "Subscription created from checkout.session.completed")
	return nil
}

func handleSubscriptionUpdated(event stripe.Event) error {
	var ev subscriptionEvent
	if err := json.Unmarshal(event.Data.Raw, &ev); err != nil {
		return fmt.Errorf("error parsing subscription event: %w", err)
	}

	var sub models.Subscription
	if err := db.DB.First(&sub, "stripe_subscription_id = ?", ev.ID).Error; err != nil {
		utils.LogInfo("customer.subscription.updated for unknown subscription " + ev.ID)
		return nil
	}

	updates := map[string]interface{}{
		"cancel_at_period_end": ev.CancelAtPeriodEnd,
	}
	newStatus := mapStripeStatus(ev.Status)
	updates["status"] = newStatus
	if tier, cycle, ok := TierForPriceID(ev.priceID()); ok {
		updates["tier"] = tier
		updates["billing_cycle"] = cycle
	}
	if ev.CurrentPeriodStart > 0 {
		updates["current_period_start"] = time.Unix(ev.CurrentPeriodStart, 0)
	}
	if ev.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(ev.CurrentPeriodEnd, 0)
	}

	statusChanged := sub.Status != newStatus
	if err := db.DB.Model(&sub).Updates(updates).Error; err != nil {
		return fmt.Errorf("error updating the subscription row: %w", err)
	}

	if statusChanged && newStatus == models.SubscriptionCanceled {
		if user, err := findUserByID(sub.UserID); err == nil {
			mailsmodels.SubscriptionCanceled(user.Email)
		}
	}
	return nil
}

func handleSubscriptionDeleted(event stripe.Event) error {
	var ev subscriptionEvent
	if err := json.Unmarshal(event.Data.Raw, &ev); err != nil {
		return fmt.Errorf("error parsing subscription event: %w", err)
	}

	var sub models.Subscription
	if err := db.DB.First(&sub, "stripe_subscription_id = ?", ev.ID).Error; err != nil {
		utils.LogInfo("customer.subscription.deleted for unknown subscription " + ev.ID)
		return nil
	}

	if err := db.DB.Model(&sub).Update("status", models.SubscriptionCanceled).Error; err != nil {
		return fmt.Errorf("error canceling the subscription row: %w", err)
	}

	if user, err := findUserByID(sub.UserID); err == nil {
		mailsmodels.SubscriptionCanceled(user.Email)
	}
	return nil
}

func handleInvoicePaymentSucceeded(event stripe.Event) error {
	var ev invoiceEvent
	if err := json.Unmarshal(event.Data.Raw, &ev); err != nil {
		return fmt.Errorf("error parsing invoice event: %w", err)
	}

	user, err := resolveUser("", ev.Customer)
	if err != nil {
		utils.LogInfo("invoice.payment_succeeded for unknown customer " + ev.Customer)
		return nil
	}

	if ev.ID != "" {
		var existing models.PaymentHistory
		if err := db.DB.First(&existing, "stripe_invoice_id = ?", ev.ID).Error; err == nil {
			return nil
		}
	}

	payment := models.PaymentHistory{
		UserID:                user.ID,
		StripeInvoiceId:       ev.ID,
		StripePaymentIntentId: ev.PaymentIntent,
		AmountCents:           ev.AmountPaid,
		Currency:              ev.Currency,
		Status:                models.PaymentSucceeded,
		Description:           "Subscription renewal",
	}
	if subID := ev.subscriptionID(); subID != "" {
		var sub models.Subscription
		if err := db.DB.First(&sub, "stripe_subscription_id = ?", subID).Error; err == nil {
			payment.SubscriptionID = sub.ID
		}
	}
	if err := db.DB.Create(&payment).Error; err != nil {
		return fmt.Errorf("error creating the payment row: %w", err)
	}

	// drop usage counters from earlier billing periods
	db.DB.Where("user_id = ? AND period_start < ?", user.ID, monthStart(time.Now())).
		Delete(&models.UsageTracking{})

	return nil
}

func handleInvoicePaymentFailed(event stripe.Event) error {
	var ev invoiceEvent
	if err := json.Unmarshal(event.Data.Raw, &ev); err != nil {
		return fmt.Errorf("error parsing invoice event: %w", err)
	}

	user, err := resolveUser("", ev.Customer)
	if err != nil {
		utils.LogInfo("invoice.payment_failed for unknown customer " + ev.Customer)
		return nil
	}

	payment := models.PaymentHistory{
		UserID:                user.ID,
		StripeInvoiceId:       ev.ID,
		StripePaymentIntentId: ev.PaymentIntent,
		AmountCents:           ev.AmountDue,
		Currency:              ev.Currency,
		Status:                models.PaymentFailed,
		Description:           "Payment failed",
	}
	if err := db.DB.Create(&payment).Error; err != nil {
		return fmt.Errorf("error creating the payment row: %w", err)
	}

	if subID := ev.subscriptionID(); subID != "" {
		var sub models.Subscription
		if err := db.DB.First(&sub, "stripe_subscription_id = ?", subID).Error; err == nil {
			// status only: the period bounds stay whatever Stripe last told us
			if err := db.DB.Model(&sub).Update("status", models.SubscriptionPastDue).Error; err != nil {
				return fmt.Errorf("error marking the subscription past_due: %w", err)
			}
		}
	}

	mailsmodels.PaymentFailed(user.Email)
	return nil
}

func handleTrialWillEnd(event stripe.Event) error {
	var ev subscriptionEvent
	if err := json.Unmarshal(event.Data.Raw, &ev); err != nil {
		return fmt.Errorf("error parsing subscription event: %w", err)
	}

	var sub models.Subscription
	if err := db.DB.First(&sub, "stripe_subscription_id = ?", ev.ID).Error; err != nil {
		return nil
	}
	if user, err := findUserByID(sub.UserID); err == nil {
		mailsmodels.TrialEnding(user.Email)
	}
	return nil
}

// resolveUser finds the event's user, preferring the user_id our checkout
// endpoint stamped into the metadata over the customer id lookup.
func resolveUser(metadataUserID string, customerID string) (*models.User, error) {
	var user models.User
	if metadataUserID != "" {
		if err := db.DB.First(&user, "id = ?", metadataUserID).Error; err == nil {
			return &user, nil
		}
	}
	if customerID != "" {
		if err := db.DB.First(&user, "stripe_customer_id = ?", customerID).Error; err == nil {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("no user found for customer %q", customerID)
}

func findUserByID(userID string) (*models.User, error) {
	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func firstPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func mapStripeStatus(status string) models.SubscriptionStatus {
	switch status {
	case "trialing":
		return models.SubscriptionTrialing
	case "past_due", "unpaid", "incomplete":
		return models.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionActive
	}
}
