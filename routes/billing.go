package routes

import (
	"vitalis-backend/handlers/stripe"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func BillingRoutes(r *gin.Engine) {
	subscriptionRoutes := r.Group("/subscriptions")
	subscriptionRoutes.Use(middleware.JWTAuth())
	{
		subscriptionRoutes.GET("", stripe.GetSubscriptionStatus)
		subscriptionRoutes.POST("/checkout", stripe.CreateCheckoutSession)
		subscriptionRoutes.POST("/sync", stripe.ForceSyncSubscriptions)
		subscriptionRoutes.DELETE("/:subscriptionId", stripe.CancelSubscription)
		subscriptionRoutes.POST("/:subscriptionId/resume", stripe.ResumeSubscription)
		subscriptionRoutes.GET("/payments", stripe.GetPaymentHistory)
	}
	r.GET("/pricing", stripe.GetPricingTiers)

	// Signature-verified, stays outside the JWT group
	r.POST("/stripe/webhook", stripe.StripeWebhookHandler)
}
