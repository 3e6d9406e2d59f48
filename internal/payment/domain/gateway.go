package domain

import (
	"context"
	"errors"
)

// OrderRequest asks the gateway to open a payment order. Amounts are
// paise (the gateway's minor unit).
type OrderRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway-side order the client completes checkout against.
type Order struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
}

// ChargeRequest charges a stored payment reference without user
// interaction. Used by auto-renewal.
type ChargeRequest struct {
	AmountPaise int64
	Currency    string
	Reference   string
	Description string
}

type Charge struct {
	PaymentID string
	Status    string
}

type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifySignature checks the checkout callback signature binding
	// order id and payment id.
	VerifySignature(orderID, paymentID, signature string) bool
	ChargeReference(ctx context.Context, req ChargeRequest) (*Charge, error)
}

var (
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrChargeFailed       = errors.New("charge_failed")
)
