package lib

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/src/config"
	"lms/src/types"

	"github.com/stretchr/testify/assert"
)

func newTestClient(handler http.Handler) (GatewayClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewFlutterwaveClient(config.GatewayConfig{
		BaseURL:       srv.URL,
		PublicKey:     "pk_test",
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
	})
	return c, srv
}

func TestCreateCheckout(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]any{"link": "https://checkout.example.com/pay/abc"},
		})
	}))
	defer srv.Close()

	session, err := c.CreateCheckout(context.Background(), &CheckoutParams{
		Reference:     "ref-1",
		Amount:        5000,
		Currency:      "NGN",
		CustomerEmail: "someone@example.com",
		Meta:          types.Metadata{"course_id": "1", "user_id": "2"},
	})
	assert.Nil(t, err)
	assert.Equal(t, "https://checkout.example.com/pay/abc", session.Link)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "ref-1", gotBody["tx_ref"])
}

func TestVerifySuccessful(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ref-1", r.URL.Query().Get("tx_ref"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"id":       12345,
				"tx_ref":   "ref-1",
				"flw_ref":  "FLW-MOCK-1",
				"amount":   5000,
				"currency": "NGN",
				"status":   "successful",
				"customer": map[string]any{"email": "someone@example.com"},
				"meta":     map[string]any{"course_id": "7", "user_id": "9"},
			},
		})
	}))
	defer srv.Close()

	result, err := c.Verify(context.Background(), "ref-1")
	assert.Nil(t, err)
	assert.Equal(t, "successful", result.Status)
	assert.Equal(t, "ref-1", result.Reference)
	assert.Equal(t, "12345", result.ProviderRef)
	assert.Equal(t, float64(5000), result.Amount)
	assert.Equal(t, "NGN", result.Currency)
	assert.Equal(t, uint(7), result.CourseID)
	assert.Equal(t, uint(9), result.UserID)
}

func TestVerifyNotFound(t *testing.T) {
	calls := 0
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := c.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrGatewayNotFound)
	// Not-found answers are definitive, no point retrying them.
	assert.Equal(t, 1, calls)
}

func TestVerifyRetriesUnreachable(t *testing.T) {
	calls := 0
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"id": 1, "tx_ref": "ref-1", "amount": 5000,
				"currency": "NGN", "status": "pending",
			},
		})
	}))
	defer srv.Close()

	result, err := c.Verify(context.Background(), "ref-1")
	assert.Nil(t, err)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, 3, calls)
}

func TestVerifyExhaustsRetries(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := c.Verify(context.Background(), "ref-1")
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}
