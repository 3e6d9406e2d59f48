package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the organization repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) InsertSubscription(ctx context.Context, db *gorm.DB, row *domain.OrgSubscription) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.OrgSubscription, error) {
	var row domain.OrgSubscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) SaveSubscription(ctx context.Context, db *gorm.DB, row *domain.OrgSubscription) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repository) InsertPool(ctx context.Context, db *gorm.DB, row *domain.LicensePool) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindPool(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.LicensePool, error) {
	var row domain.LicensePool
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) SavePool(ctx context.Context, db *gorm.DB, row *domain.LicensePool) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repository) InsertAssignment(ctx context.Context, db *gorm.DB, row *domain.LicenseAssignment) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) SaveAssignment(ctx context.Context, db *gorm.DB, row *domain.LicenseAssignment) error {
	return db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindActiveAssignment(ctx context.Context, db *gorm.DB, orgSubscriptionID snowflake.ID, userID string) (*domain.LicenseAssignment, error) {
	var row domain.LicenseAssignment
	err := db.WithContext(ctx).
		Where("org_subscription_id = ? AND user_id = ? AND status = ?",
			orgSubscriptionID,
			userID,
			domain.AssignmentStatusActive,
		).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListAssignments(ctx context.Context, db *gorm.DB, orgSubscriptionID snowflake.ID, afterID snowflake.ID, limit int) ([]domain.LicenseAssignment, error) {
	query := db.WithContext(ctx).
		Where("org_subscription_id = ?", orgSubscriptionID).
		Order("id DESC")
	if afterID > 0 {
		query = query.Where("id < ?", afterID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []domain.LicenseAssignment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListActiveAssignmentsByUser(ctx context.Context, db *gorm.DB, userID string, at time.Time) ([]domain.LicenseAssignment, error) {
	var rows []domain.LicenseAssignment
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
			userID,
			domain.AssignmentStatusActive,
			at,
		).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
