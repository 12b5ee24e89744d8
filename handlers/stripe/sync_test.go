package stripe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitalis-backend/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"
)

const testUserID = "22222222-2222-2222-2222-222222222222"

// authedTestRouter injects the user id the JWT middleware would have set.
func authedTestRouter(userID string) *gin.Engine {
	r := testutils.SetupTestRouter()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	return r
}

func TestForceSync_UserNotFound(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))

	r := authedTestRouter(testUserID)
	r.POST("/subscriptions/sync", ForceSyncSubscriptions)

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/sync", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestForceSync_NoBillingCustomer(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "stripe_customer_id"}).
			AddRow(testUserID, "user@example.com", ""))

	r := authedTestRouter(testUserID)
	r.POST("/subscriptions/sync", ForceSyncSubscriptions)

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/sync", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var respBody map[string]string
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, "No billing customer on file", respBody["error"])
}

func TestForceSync_NoRemoteSubscriptions(t *testing.T) {
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	originalList := listActiveSubscriptions
	listActiveSubscriptions = func(customerID string) ([]*stripe.Subscription, error) {
		return nil, nil
	}
	defer func() { listActiveSubscriptions = originalList }()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "stripe_customer_id"}).
			AddRow(testUserID, "user@example.com", "cus_123"))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE user_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))

	r := authedTestRouter(testUserID)
	r.POST("/subscriptions/sync", ForceSyncSubscriptions)

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/sync", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, true, respBody["success"])
	assert.Empty(t, respBody["synced"])
	assert.Equal(t, "No active subscriptions on Stripe", respBody["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForceSync_InsertsMissingSubscription(t *testing.T) {
	t.Setenv("STRIPE_PRICE_BASIC_MONTHLY", "price_basic_monthly")
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	now := time.Now()
	originalList := listActiveSubscriptions
	listActiveSubscriptions = func(customerID string) ([]*stripe.Subscription, error) {
		return []*stripe.Subscription{
			{
				ID:     "sub_missing",
				Status: stripe.SubscriptionStatusActive,
				Items: &stripe.SubscriptionItemList{
					Data: []*stripe.SubscriptionItem{
						{
							Price:              &stripe.Price{ID: "price_basic_monthly"},
							CurrentPeriodStart: now.Unix(),
							CurrentPeriodEnd:   now.AddDate(0, 1, 0).Unix(),
						},
					},
				},
			},
		}, nil
	}
	defer func() { listActiveSubscriptions = originalList }()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "stripe_customer_id"}).
			AddRow(testUserID, "user@example.com", "cus_123"))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE stripe_subscription_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("33333333-3333-3333-3333-333333333333"))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE user_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "stripe_subscription_id", "tier", "status"}).
			AddRow("33333333-3333-3333-3333-333333333333", testUserID, "sub_missing", "basic", "active"))

	r := authedTestRouter(testUserID)
	r.POST("/subscriptions/sync", ForceSyncSubscriptions)

	req, _ := http.NewRequest(http.MethodPost, "/subscriptions/sync", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, true, respBody["success"])
	assert.Equal(t, []interface{}{"sub_missing"}, respBody["synced"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
