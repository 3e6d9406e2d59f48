package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, row *PendingOrder) error
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*PendingOrder, error)
	// TransitionFromPending conditionally moves a row out of pending.
	// It reports false when the row was not pending anymore, which is
	// how double processing is detected.
	TransitionFromPending(ctx context.Context, db *gorm.DB, orderID string, to Status, paymentID *string, completedAt *time.Time) (bool, error)
}
