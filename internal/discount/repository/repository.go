package repository

import (
	"context"
	"errors"

	"github.com/rareminds/skillpassport-billing/internal/discount/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the discount repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.DiscountCode, error) {
	var row domain.DiscountCode
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) IncrementUsage(ctx context.Context, db *gorm.DB, code string) error {
	return db.WithContext(ctx).
		Model(&domain.DiscountCode{}).
		Where("code = ?", code).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1")).Error
}
