package domain

import (
	"context"
	"errors"
	"time"

	"github.com/rareminds/skillpassport-billing/pkg/db/pagination"
)

type Service interface {
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*OrgSubscription, error)
	CreatePool(ctx context.Context, req CreatePoolRequest) (*LicensePool, error)
	AssignSeat(ctx context.Context, req AssignSeatRequest) (*LicenseAssignment, error)
	RevokeSeat(ctx context.Context, req RevokeSeatRequest) error
	ListLicenses(ctx context.Context, orgSubscriptionID string, page pagination.Pagination) ([]LicenseAssignment, *pagination.PageInfo, error)
	// FindActiveLicense returns the license that currently covers the
	// user, or nil when none does.
	FindActiveLicense(ctx context.Context, userID string, at time.Time) (*License, error)
}

type CreateSubscriptionRequest struct {
	OrgID      string `json:"org_id"`
	Plan       string `json:"plan"`
	TotalSeats int    `json:"total_seats"`
	StartDate  time.Time
	EndDate    time.Time
}

type CreatePoolRequest struct {
	OrgSubscriptionID string `json:"org_subscription_id"`
	Name              string `json:"name"`
	TotalSeats        int    `json:"total_seats"`
	AutoAssign        bool   `json:"auto_assign"`
}

type AssignSeatRequest struct {
	OrgSubscriptionID string     `json:"org_subscription_id"`
	PoolID            string     `json:"pool_id,omitempty"`
	UserID            string     `json:"user_id"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
}

type RevokeSeatRequest struct {
	OrgSubscriptionID string
	UserID            string
}

var (
	ErrSubscriptionNotFound  = errors.New("org_subscription_not_found")
	ErrSubscriptionInactive  = errors.New("org_subscription_inactive")
	ErrPoolNotFound          = errors.New("license_pool_not_found")
	ErrNoSeatsAvailable      = errors.New("no_seats_available")
	ErrSeatAlreadyAssigned   = errors.New("seat_already_assigned")
	ErrAssignmentNotFound    = errors.New("license_assignment_not_found")
	ErrInvalidSeatCount      = errors.New("invalid_seat_count")
	ErrInvalidSubscriptionID = errors.New("invalid_org_subscription_id")
	ErrInvalidPoolID         = errors.New("invalid_pool_id")
	ErrInvalidPeriod         = errors.New("invalid_subscription_period")
)
