package domain

import (
	"context"

	"gorm.io/gorm"
)

// Resolution is the outcome of applying a code to a base price.
// An unusable code resolves to a zero amount, never an error: a bad
// code must not block a purchase.
type Resolution struct {
	Code    string
	Amount  int64
	Applied bool
}

type Service interface {
	Resolve(ctx context.Context, code string, basePrice int64) (Resolution, error)
	// IncrementUsage records one redemption. Runs inside the caller's
	// transaction so a failed order never burns a use.
	IncrementUsage(ctx context.Context, db *gorm.DB, code string) error
}
