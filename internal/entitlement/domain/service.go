package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	ListForUser(ctx context.Context, userID string) ([]Entitlement, error)
	// Cancel keeps access until the period end; it turns auto-renew off
	// and stamps cancelled_at.
	Cancel(ctx context.Context, req CancelRequest) (*CancelResponse, error)
	SetAutoRenew(ctx context.Context, req AutoRenewRequest) (*Entitlement, error)
}

type CancelRequest struct {
	UserID        string
	EntitlementID string
}

type CancelResponse struct {
	Entitlement *Entitlement `json:"entitlement"`
	AccessUntil time.Time    `json:"access_until"`
}

type AutoRenewRequest struct {
	UserID        string
	EntitlementID string
	Enabled       bool
}

var (
	ErrEntitlementNotFound  = errors.New("entitlement_not_found")
	ErrAlreadyCancelled     = errors.New("entitlement_already_cancelled")
	ErrEntitlementExpired   = errors.New("entitlement_expired")
	ErrInvalidEntitlementID = errors.New("invalid_entitlement_id")
)
