package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/subscription/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the subscription repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) ListLiveByUser(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) ([]domain.Subscription, error) {
	var rows []domain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND end_date >= ?",
			userID,
			[]domain.Status{domain.StatusActive, domain.StatusPaused, domain.StatusCancelled},
			cutoff,
		).
		Order("end_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) ListExpirable(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]domain.Subscription, error) {
	var rows []domain.Subscription
	err := db.WithContext(ctx).
		Where("status IN ? AND end_date < ?",
			[]domain.Status{domain.StatusActive, domain.StatusPaused, domain.StatusCancelled},
			cutoff,
		).
		Order("end_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkExpired(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id IN ? AND status IN ?",
			ids,
			[]domain.Status{domain.StatusActive, domain.StatusPaused, domain.StatusCancelled},
		).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
