package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the entitlement repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, row *domain.Entitlement) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) Save(ctx context.Context, db *gorm.DB, row *domain.Entitlement) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entitlement, error) {
	var row domain.Entitlement
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("end_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListLiveByUser(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND end_date >= ?",
			userID,
			[]domain.Status{domain.StatusActive, domain.StatusGracePeriod},
			cutoff,
		).
		Order("end_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListLiveByUserFeature(ctx context.Context, db *gorm.DB, userID, featureKey string, cutoff time.Time) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("user_id = ? AND feature_key = ? AND status IN ? AND end_date >= ?",
			userID,
			featureKey,
			[]domain.Status{domain.StatusActive, domain.StatusGracePeriod},
			cutoff,
		).
		Order("end_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByUserFeature(ctx context.Context, db *gorm.DB, userID, featureKey string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ? AND feature_key = ?", userID, featureKey).
		Count(&count).Error
	return count, err
}

func (r *repository) CountByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) SupersedeLive(ctx context.Context, db *gorm.DB, userID, featureKey string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ? AND feature_key = ? AND status IN ?",
			userID,
			featureKey,
			[]domain.Status{domain.StatusActive, domain.StatusGracePeriod},
		).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		}).Error
}

func (r *repository) ListExpirable(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("status IN ? AND end_date < ?",
			[]domain.Status{domain.StatusActive, domain.StatusGracePeriod},
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
		Model(&domain.Entitlement{}).
		Where("id IN ? AND status IN ?",
			ids,
			[]domain.Status{domain.StatusActive, domain.StatusGracePeriod},
		).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListGraceCandidates(ctx context.Context, db *gorm.DB, now, cutoff time.Time, limit int) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("status = ? AND end_date < ? AND end_date >= ?",
			domain.StatusActive,
			now,
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

func (r *repository) MarkGracePeriod(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("id IN ? AND status = ?", ids, domain.StatusActive).
		Updates(map[string]any{
			"status":     domain.StatusGracePeriod,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListReminderCandidates(ctx context.Context, db *gorm.DB, now, horizon time.Time, limit int) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("status = ? AND auto_renew = ? AND end_date > ? AND end_date <= ?",
			domain.StatusActive,
			false,
			now,
			horizon,
		).
		Order("end_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAutoRenewDue(ctx context.Context, db *gorm.DB, now, windowEnd time.Time, limit int) ([]domain.Entitlement, error) {
	var rows []domain.Entitlement
	err := db.WithContext(ctx).
		Where("status = ? AND auto_renew = ? AND cancelled_at IS NULL AND end_date > ? AND end_date <= ?",
			domain.StatusActive,
			true,
			now,
			windowEnd,
		).
		Order("end_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
