package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rareminds/skillpassport-billing/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the pending order repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, row *domain.PendingOrder) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.PendingOrder, error) {
	var row domain.PendingOrder
	err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) TransitionFromPending(ctx context.Context, db *gorm.DB, orderID string, to domain.Status, paymentID *string, completedAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if paymentID != nil {
		updates["payment_id"] = *paymentID
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
		updates["updated_at"] = *completedAt
	}

	res := db.WithContext(ctx).
		Model(&domain.PendingOrder{}).
		Where("order_id = ? AND status = ?", orderID, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
