package stripe

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"vitalis-backend/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_test_secret"

func sqlmockResult(rowsAffected int64) driver.Result {
	return sqlmock.NewResult(0, rowsAffected)
}

func TestMain(m *testing.M) {
	testutils.InitTestMain()

	log.SetOutput(io.Discard)

	exitCode := m.Run()

	log.SetOutput(os.Stdout)

	os.Exit(exitCode)
}

// signedWebhookRequest builds a POST /stripe/webhook request carrying a valid
// Stripe signature over the payload.
func signedWebhookRequest(payload []byte) *http.Request {
	sp := stripe.GenerateTestSignedPayload(&stripe.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})

	req, _ := http.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sp.Header)
	return req
}

func webhookRouter() http.Handler {
	r := testutils.SetupTestRouter()
	r.POST("/stripe/webhook", StripeWebhookHandler)
	return r
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)

	r := webhookRouter()

	payload := []byte(`{"id":"evt_bad_sig","type":"product.created","data":{"object":{}}}`)
	req, _ := http.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewBuffer(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhook_UnknownEventTypeIsAcknowledged(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET (.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	payload := []byte(`{"id":"evt_unknown_1","type":"product.created","data":{"object":{}}}`)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, true, respBody["received"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_ProcessedEventIsNotReapplied(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "stripe_event_id", "event_type", "processed"}).
			AddRow("11111111-1111-1111-1111-111111111111", "evt_dup_1", "checkout.session.completed", true))

	r := webhookRouter()

	payload := []byte(`{"id":"evt_dup_1","type":"checkout.session.completed","data":{"object":{}}}`)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, "duplicate", respBody["status"])
	// no insert, no handler queries: the first delivery's effects stand alone
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_ConcurrentDeliveryLosesInsert(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_webhook_events_stripe_event_id"`))
	mock.ExpectRollback()

	r := webhookRouter()

	payload := []byte(`{"id":"evt_race_1","type":"checkout.session.completed","data":{"object":{}}}`)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)

	var respBody map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &respBody)
	assert.Equal(t, "duplicate", respBody["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_CheckoutSessionCompletedCreatesSubscription(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	t.Setenv("STRIPE_PRICE_PRO_MONTHLY", "price_pro_monthly")
	t.Setenv("SMTP_PASSWORD", "")
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	userID := "22222222-2222-2222-2222-222222222222"
	periodStart := time.Unix(1750000000, 0)
	periodEnd := time.Unix(1752592000, 0)

	originalFetch := fetchStripeSubscription
	fetchStripeSubscription = func(subscriptionID string) (*stripe.Subscription, error) {
		return &stripe.Subscription{
			ID:     subscriptionID,
			Status: stripe.SubscriptionStatusActive,
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{
						CurrentPeriodStart: periodStart.Unix(),
						CurrentPeriodEnd:   periodEnd.Unix(),
					},
				},
			},
		}, nil
	}
	defer func() { fetchStripeSubscription = originalFetch }()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "stripe_customer_id"}).
			AddRow(userID, "user@example.com", "cus_123"))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE stripe_subscription_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	// the stored row carries the tier the price id maps to and the period
	// bounds Stripe reported, not local approximations
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "subscriptions" (.+) RETURNING "id"`).
		WithArgs(userID, "sub_abc", "cus_123", "pro", "active", "monthly",
			periodStart, periodEnd, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("33333333-3333-3333-3333-333333333333"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payment_history" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("44444444-4444-4444-4444-444444444444"))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "promotional_periods" SET (.+)`).
		WillReturnResult(sqlmockResult(0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET (.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	object := map[string]interface{}{
		"id":           "cs_test_1",
		"customer":     "cus_123",
		"subscription": "sub_abc",
		"amount_total": 2900,
		"currency":     "usd",
		"metadata": map[string]string{
			"user_id":       userID,
			"price_id":      "price_pro_monthly",
			"tier":          "pro",
			"billing_cycle": "monthly",
		},
	}
	payload := buildEventPayload("evt_checkout_1", "checkout.session.completed", object)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_CheckoutSessionWithoutSubscriptionIsRejected(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()
	// no subscription row is written; the ledger keeps the error
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET "error_message"=(.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	payload := buildEventPayload("evt_checkout_nosub_1", "checkout.session.completed", map[string]interface{}{
		"id":       "cs_test_3",
		"customer": "cus_123",
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_InvoicePaymentFailedMarksPastDue(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	t.Setenv("SMTP_PASSWORD", "")
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	userID := "22222222-2222-2222-2222-222222222222"

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE stripe_customer_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email", "stripe_customer_id"}).
			AddRow(userID, "user@example.com", "cus_123"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payment_history" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("44444444-4444-4444-4444-444444444444"))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE stripe_subscription_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "status", "current_period_end"}).
			AddRow("33333333-3333-3333-3333-333333333333", userID, "active", time.Now().AddDate(0, 1, 0)))
	// only the status column moves; the period bounds stay untouched
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET "status"=\$1,"updated_at"=\$2 WHERE`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET (.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	object := map[string]interface{}{
		"id":         "in_test_1",
		"customer":   "cus_123",
		"amount_due": 1999,
		"currency":   "usd",
		"parent": map[string]interface{}{
			"subscription_details": map[string]interface{}{
				"subscription": "sub_abc",
			},
		},
	}
	payload := buildEventPayload("evt_invoice_fail_1", "invoice.payment_failed", object)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_SubscriptionDeletedCancelsRow(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	t.Setenv("SMTP_PASSWORD", "")
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	userID := "22222222-2222-2222-2222-222222222222"

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE stripe_subscription_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "status"}).
			AddRow("33333333-3333-3333-3333-333333333333", userID, "active"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET "status"=(.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id", "email"}).
			AddRow(userID, "user@example.com"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET (.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	object := map[string]interface{}{
		"id":       "sub_abc",
		"customer": "cus_123",
		"status":   "canceled",
	}
	payload := buildEventPayload("evt_sub_del_1", "customer.subscription.deleted", object)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStripeWebhook_HandlerErrorLeavesLedgerUnprocessed(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	_, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "webhook_events" WHERE stripe_event_id = (.+)`).
		WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events" (.+) RETURNING "id"`).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("11111111-1111-1111-1111-111111111111"))
	mock.ExpectCommit()
	// the failure path records the error but never flips processed
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "webhook_events" SET "error_message"=(.+)`).
		WillReturnResult(sqlmockResult(1))
	mock.ExpectCommit()

	r := webhookRouter()

	// checkout session without a customer cannot be attributed
	payload := buildEventPayload("evt_checkout_bad_1", "checkout.session.completed", map[string]interface{}{
		"id": "cs_test_2",
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, signedWebhookRequest(payload))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func buildEventPayload(eventID string, eventType string, object map[string]interface{}) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{
			"object": object,
		},
	})
	return payload
}
