package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"go.uber.org/zap"
)

// Config carries the Razorpay API credentials.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	}
}

type Gateway struct {
	cfg    Config
	log    *zap.Logger
	client *http.Client
}

func New(cfg Config, log *zap.Logger) *Gateway {
	return &Gateway{
		cfg: cfg,
		log: log.Named("razorpay"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type orderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (g *Gateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	payload := orderPayload{
		Amount:   req.AmountPaise,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}

	var resp orderResponse
	if err := g.post(ctx, "/orders", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, domain.ErrGatewayUnavailable
	}

	g.log.Info("gateway order created",
		zap.String("order_id", resp.ID),
		zap.Int64("amount", resp.Amount),
		zap.String("currency", resp.Currency),
	)
	return &domain.Order{
		ID:          resp.ID,
		AmountPaise: resp.Amount,
		Currency:    resp.Currency,
		Receipt:     resp.Receipt,
	}, nil
}

// VerifySignature recomputes HMAC-SHA256 over "orderID|paymentID" with
// the key secret and compares it to the callback signature in constant
// time.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type chargePayload struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Token       string `json:"token"`
	Description string `json:"description,omitempty"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *Gateway) ChargeReference(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	payload := chargePayload{
		Amount:      req.AmountPaise,
		Currency:    req.Currency,
		Token:       req.Reference,
		Description: req.Description,
	}

	var resp chargeResponse
	if err := g.post(ctx, "/payments/create/recurring", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.Status == "failed" {
		return nil, domain.ErrChargeFailed
	}
	return &domain.Charge{PaymentID: resp.ID, Status: resp.Status}, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Warn("gateway request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
