package domain

import (
	"context"
	"time"
)

type Reason string

const (
	ReasonActive         Reason = "active"
	ReasonGracePeriod    Reason = "grace_period"
	ReasonExpired        Reason = "expired"
	ReasonNoSubscription Reason = "no_subscription"
)

type Source string

const (
	SourceOrganization Source = "organization"
	SourceSubscription Source = "subscription"
	SourceEntitlement  Source = "entitlement"
	SourceNone         Source = "none"
)

const (
	WarningPaused       = "paused"
	WarningExpiringSoon = "expiring_soon"
)

type Warning struct {
	Code            string     `json:"code"`
	Message         string     `json:"message"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	DaysUntilExpiry *int       `json:"days_until_expiry,omitempty"`
}

// Decision is the outcome of one access evaluation. It is a pure read:
// evaluating never mutates any row.
type Decision struct {
	HasAccess       bool       `json:"has_access"`
	Reason          Reason     `json:"reason"`
	Source          Source     `json:"source"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	DaysLeftInGrace *int       `json:"days_left_in_grace,omitempty"`
	Warnings        []Warning  `json:"warnings,omitempty"`
}

// Request evaluates product-level access when FeatureKey is empty,
// feature-level access otherwise.
type Request struct {
	UserID     string
	FeatureKey string
}

type Service interface {
	Evaluate(ctx context.Context, req Request) (*Decision, error)
}
