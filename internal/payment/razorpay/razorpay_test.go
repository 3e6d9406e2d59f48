package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := New(Config{KeySecret: "test_secret"}, zaptest.NewLogger(t))

	valid := sign("test_secret", "order_1", "pay_1")
	assert.True(t, g.VerifySignature("order_1", "pay_1", valid))

	// Signature bound to a different order or payment fails.
	assert.False(t, g.VerifySignature("order_2", "pay_1", valid))
	assert.False(t, g.VerifySignature("order_1", "pay_2", valid))

	// Wrong secret fails.
	assert.False(t, g.VerifySignature("order_1", "pay_1", sign("other_secret", "order_1", "pay_1")))

	// Empty fields never verify.
	assert.False(t, g.VerifySignature("", "pay_1", valid))
	assert.False(t, g.VerifySignature("order_1", "", valid))
	assert.False(t, g.VerifySignature("order_1", "pay_1", ""))
}

func TestCreateOrder(t *testing.T) {
	var gotPath string
	var gotPayload orderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(orderResponse{
			ID:       "order_abc",
			Amount:   gotPayload.Amount,
			Currency: gotPayload.Currency,
			Receipt:  gotPayload.Receipt,
			Status:   "created",
		})
	}))
	defer srv.Close()

	g := New(Config{KeyID: "key_id", KeySecret: "key_secret", BaseURL: srv.URL}, zaptest.NewLogger(t))
	order, err := g.CreateOrder(context.Background(), domain.OrderRequest{
		AmountPaise: 49900,
		Currency:    "INR",
		Receipt:     "rcpt_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "/orders", gotPath)
	assert.Equal(t, int64(49900), gotPayload.Amount)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "rcpt_1", order.Receipt)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	_, err := g.CreateOrder(context.Background(), domain.OrderRequest{AmountPaise: 100, Currency: "INR"})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestChargeReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload chargePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "tok_1", payload.Token)
		json.NewEncoder(w).Encode(chargeResponse{ID: "pay_1", Status: "captured"})
	}))
	defer srv.Close()

	g := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	charge, err := g.ChargeReference(context.Background(), domain.ChargeRequest{
		AmountPaise: 49900,
		Currency:    "INR",
		Reference:   "tok_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", charge.PaymentID)
}

func TestChargeReferenceDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chargeResponse{ID: "pay_1", Status: "failed"})
	}))
	defer srv.Close()

	g := New(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	_, err := g.ChargeReference(context.Background(), domain.ChargeRequest{AmountPaise: 100, Currency: "INR"})
	assert.ErrorIs(t, err, domain.ErrChargeFailed)
}
