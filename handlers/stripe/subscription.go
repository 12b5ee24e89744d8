package stripe

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"vitalis-backend/db"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	session "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	stripeSubscription "github.com/stripe/stripe-go/v82/subscription"
	"gorm.io/gorm"
)

// Live billing-provider reads, overridable in tests. Each one is allowed to
// fail independently: the detail endpoint degrades to null fields instead of
// failing the request.
var listRecentInvoices = func(customerID string) ([]*stripe.Invoice, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Limit = stripe.Int64(12)
	iter := invoice.List(params)
	var invoices []*stripe.Invoice
	for iter.Next() {
		invoices = append(invoices, iter.Invoice())
	}
	return invoices, iter.Err()
}

var fetchUpcomingInvoice = func(customerID string, subscriptionID string) (*stripe.Invoice, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	params := &stripe.InvoiceCreatePreviewParams{
		Customer:     stripe.String(customerID),
		Subscription: stripe.String(subscriptionID),
	}
	return invoice.CreatePreview(params)
}

var updateStripeSubscription = func(subscriptionID string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	return stripeSubscription.Update(subscriptionID, params)
}

// GetSubscriptionStatus returns the composed subscription view: local row,
// live Stripe data, per-tier feature limits and this month's usage counts.
// @Summary Current subscription detail
// @Description Return the user's subscription with live billing data, feature limits and usage
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /subscriptions [get]
func GetSubscriptionStatus(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var sub models.Subscription
	err := db.DB.
		Where("user_id = ? AND status IN ?", userID, activeLikeStatuses).
		Order("created_at DESC").
		First(&sub).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// free user: answered entirely from local data
		c.JSON(http.StatusOK, gin.H{
			"subscription":     nil,
			"tier":             models.TierFree,
			"status":           "no_subscription",
			"feature_limits":   LimitsForTier(models.TierFree),
			"usage":            MonthlyUsage(userID),
			"invoices":         []gin.H{},
			"upcoming_invoice": nil,
			"can_cancel":       false,
			"can_resume":       false,
		})
		return
	}
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching the subscription row")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching subscription"})
		return
	}

	var liveSub gin.H
	if s, liveErr := fetchStripeSubscription(sub.StripeSubscriptionId); liveErr == nil && s != nil {
		liveSub = gin.H{
			"id":                   s.ID,
			"status":               string(s.Status),
			"cancel_at_period_end": s.CancelAtPeriodEnd,
		}
	} else if liveErr != nil {
		utils.LogErrorWithUser(userID, liveErr, "Live subscription read failed, degrading to local data")
	}

	invoices := []gin.H{}
	if invs, invErr := listRecentInvoices(sub.StripeCustomerId); invErr == nil {
		for _, inv := range invs {
			invoices = append(invoices, gin.H{
				"id":                 inv.ID,
				"amount_due":         CentsToDollars(inv.AmountDue),
				"amount_paid":        CentsToDollars(inv.AmountPaid),
				"currency":           string(inv.Currency),
				"status":             string(inv.Status),
				"created":            inv.Created,
				"hosted_invoice_url": inv.HostedInvoiceURL,
			})
		}
	} else {
		utils.LogErrorWithUser(userID, invErr, "Invoice list read failed, returning empty list")
	}

	var upcoming gin.H
	if up, upErr := fetchUpcomingInvoice(sub.StripeCustomerId, sub.StripeSubscriptionId); upErr == nil && up != nil {
		upcoming = gin.H{
			"amount_due": CentsToDollars(up.AmountDue),
			"currency":   string(up.Currency),
			"created":    up.Created,
		}
	} else if upErr != nil {
		utils.LogErrorWithUser(userID, upErr, "Upcoming invoice preview failed, omitting it")
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription":        sub,
		"tier":                sub.Tier,
		"status":              sub.Status,
		"feature_limits":      LimitsForTier(sub.Tier),
		"usage":               MonthlyUsage(userID),
		"stripe_subscription": liveSub,
		"invoices":            invoices,
		"upcoming_invoice":    upcoming,
		"can_cancel":          sub.Status == models.SubscriptionActive && !sub.CancelAtPeriodEnd,
		"can_resume":          sub.CancelAtPeriodEnd,
	})
}

type checkoutRequest struct {
	Tier         string `json:"tier" binding:"required"`
	BillingCycle string `json:"billingCycle"`
}

// CreateCheckoutSession starts a Stripe Checkout for a paid tier. The user
// id and price id are stamped into the session metadata so the webhook can
// attribute the completed checkout without extra round-trips.
// @Summary Create a Stripe Checkout session
// @Description Start a Stripe payment for a subscription tier. Returns the session id and URL for the frontend.
// @Tags billing
// @Accept json
// @Produce json
// @Param body body checkoutRequest true "Tier and billing cycle"
// @Security BearerAuth
// @Success 200 {object} map[string]string "sessionId, url"
// @Failure 400 {object} map[string]string "error: Unknown tier or cycle"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 500 {object} map[string]string "error: Stripe error"
// @Router /subscriptions/checkout [post]
func CreateCheckoutSession(c *gin.Context) {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	cycle := models.BillingCycle(req.BillingCycle)
	if cycle == "" {
		cycle = models.BillingMonthly
	}
	tier := models.SubscriptionTier(req.Tier)

	priceID, err := PriceIDFor(tier, cycle)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "User not found in CreateCheckoutSession")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.StripeCustomerId != "" {
		// make sure the customer still exists on Stripe
		if _, err := customer.Get(user.StripeCustomerId, nil); err != nil {
			user.StripeCustomerId = ""
		}
	}
	if user.StripeCustomerId == "" {
		custParams := &stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(strings.TrimSpace(user.FirstName + " " + user.LastName)),
		}
		cust, err := customer.New(custParams)
		if err != nil {
			utils.LogErrorWithUser(userID, err, "Error creating the Stripe customer")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating the Stripe customer"})
			return
		}
		db.DB.Model(&user).Update("stripe_customer_id", cust.ID)
		user.StripeCustomerId = cust.ID
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(user.StripeCustomerId),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(os.Getenv("CHECKOUT_SUCCESS_URL")),
		CancelURL:         stripe.String(os.Getenv("CHECKOUT_CANCEL_URL")),
		ClientReferenceID: stripe.String(user.ID),
	}
	params.AddMetadata("user_id", user.ID)
	params.AddMetadata("price_id", priceID)
	params.AddMetadata("tier", string(tier))
	params.AddMetadata("billing_cycle", string(cycle))

	s, err := session.New(params)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error creating the Stripe Checkout session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	utils.LogSuccessWithUser(userID, "Stripe Checkout session created")
	c.JSON(http.StatusOK, gin.H{"sessionId": s.ID, "url": s.URL})
}

// CancelSubscription flags the subscription to cancel at the end of the
// current billing period, on Stripe first and then locally.
// @Summary Cancel a subscription at period end
// @Tags billing
// @Produce json
// @Param subscriptionId path string true "ID of the subscription"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message"
// @Failure 400 {object} map[string]string "error: Invalid subscription ID"
// @Failure 403 {object} map[string]string "error: Not authorized"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{subscriptionId} [delete]
func CancelSubscription(c *gin.Context) {
	subscriptionId := c.Param("subscriptionId")

	if _, err := uuid.Parse(subscriptionId); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var sub models.Subscription
	if err := db.DB.First(&sub, "id = ?", subscriptionId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	if sub.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to cancel this subscription"})
		return
	}

	if _, err := updateStripeSubscription(sub.StripeSubscriptionId, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}); err != nil {
		utils.LogErrorWithUser(userID, err, "Error flagging the Stripe subscription for cancellation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error when canceling the Stripe subscription"})
		return
	}

	if err := db.DB.Model(&sub).Update("cancel_at_period_end", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error when updating the subscription"})
		return
	}

	utils.LogSuccessWithUser(userID, "Subscription flagged to cancel at period end")
	c.JSON(http.StatusOK, gin.H{"message": "Subscription will be canceled at the end of the billing period"})
}

// ResumeSubscription clears the cancel-at-period-end flag.
// @Summary Resume a subscription flagged for cancellation
// @Tags billing
// @Produce json
// @Param subscriptionId path string true "ID of the subscription"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message"
// @Failure 400 {object} map[string]string "error"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{subscriptionId}/resume [post]
func ResumeSubscription(c *gin.Context) {
	subscriptionId := c.Param("subscriptionId")

	if _, err := uuid.Parse(subscriptionId); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var sub models.Subscription
	if err := db.DB.First(&sub, "id = ?", subscriptionId).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	if sub.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to resume this subscription"})
		return
	}

	if !sub.CancelAtPeriodEnd {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subscription is not flagged for cancellation"})
		return
	}

	if _, err := updateStripeSubscription(sub.StripeSubscriptionId, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}); err != nil {
		utils.LogErrorWithUser(userID, err, "Error resuming the Stripe subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error when resuming the Stripe subscription"})
		return
	}

	if err := db.DB.Model(&sub).Update("cancel_at_period_end", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error when updating the subscription"})
		return
	}

	utils.LogSuccessWithUser(userID, "Subscription resumed")
	c.JSON(http.StatusOK, gin.H{"message": "Subscription resumed"})
}

// GetPaymentHistory lists the user's payments, newest first, amounts in dollars.
// @Summary Payment history
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {array} map[string]interface{}
// @Router /subscriptions/payments [get]
func GetPaymentHistory(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var payments []models.PaymentHistory
	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching the payment history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching payment history"})
		return
	}

	out := []gin.H{}
	for _, p := range payments {
		out = append(out, gin.H{
			"id":              p.ID,
			"amount":          CentsToDollars(p.AmountCents),
			"currency":        p.Currency,
			"status":          p.Status,
			"description":     p.Description,
			"stripeInvoiceId": p.StripeInvoiceId,
			"createdAt":       p.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}

// GetPricingTiers returns the static plan catalog.
// @Summary Pricing catalog
// @Tags billing
// @Produce json
// @Success 200 {array} models.PricingTier
// @Router /pricing [get]
func GetPricingTiers(c *gin.Context) {
	var tiers []models.PricingTier
	if err := db.DB.Where("active = ?", true).Order("sort_order ASC").Find(&tiers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pricing tiers"})
		return
	}

	c.JSON(http.StatusOK, tiers)
}
