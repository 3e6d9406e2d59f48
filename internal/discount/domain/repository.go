package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*DiscountCode, error)
	IncrementUsage(ctx context.Context, db *gorm.DB, code string) error
}
