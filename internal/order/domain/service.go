package domain

import (
	"context"
	"errors"
	"fmt"

	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
)

type Service interface {
	CreateAddOnOrder(ctx context.Context, req CreateAddOnOrderRequest) (*OrderResponse, error)
	CreateBundleOrder(ctx context.Context, req CreateBundleOrderRequest) (*OrderResponse, error)
	// VerifyPayment checks the checkout callback signature and, exactly
	// once per order, activates the purchased entitlements.
	VerifyPayment(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
}

type CreateAddOnOrderRequest struct {
	UserID        string
	FeatureKey    string `json:"feature_key"`
	BillingPeriod string `json:"billing_period"`
	DiscountCode  string `json:"discount_code"`
}

type CreateBundleOrderRequest struct {
	UserID        string
	BundleID      string `json:"bundle_id"`
	BillingPeriod string `json:"billing_period"`
	DiscountCode  string `json:"discount_code"`
}

type OrderResponse struct {
	OrderID         string `json:"order_id"`
	AmountPaise     int64  `json:"amount"`
	Currency        string `json:"currency"`
	BasePrice       int64  `json:"base_price"`
	DiscountAmount  int64  `json:"discount_amount"`
	FinalPrice      int64  `json:"final_price"`
	DiscountApplied bool   `json:"discount_applied"`
}

type VerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type VerifyResponse struct {
	OrderID      string                          `json:"order_id"`
	Entitlements []entitlementdomain.Entitlement `json:"entitlements"`
}

var (
	ErrAlreadyOwned             = errors.New("already_owned")
	ErrOrderNotFound            = errors.New("order_not_found")
	ErrInvalidSignature         = errors.New("invalid_signature")
	ErrOrderAlreadyProcessed    = errors.New("order_already_processed")
	ErrMissingVerificationField = errors.New("missing_verification_field")
	ErrOrderCorrupted           = errors.New("order_corrupted")
)

// ActivationError reports that the charge was verified but writing the
// entitlements failed. Callers must surface that payment succeeded so
// support can reconcile, never a payment failure.
type ActivationError struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("entitlement activation failed for order %s: %v", e.OrderID, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }
