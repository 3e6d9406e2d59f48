package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide builds the catalog repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) ListAddOns(ctx context.Context, db *gorm.DB, category string) ([]domain.AddOn, error) {
	query := db.WithContext(ctx).Where("active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rows []domain.AddOn
	if err := query.Order("sort_order ASC, feature_key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindAddOnByFeatureKey(ctx context.Context, db *gorm.DB, featureKey string) (*domain.AddOn, error) {
	var row domain.AddOn
	err := db.WithContext(ctx).
		Where("feature_key = ?", featureKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListBundles(ctx context.Context, db *gorm.DB) ([]domain.Bundle, error) {
	var rows []domain.Bundle
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC, slug ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindBundle(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bundle, error) {
	var row domain.Bundle
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListBundleFeatures(ctx context.Context, db *gorm.DB, bundleIDs []snowflake.ID) ([]domain.BundleFeature, error) {
	if len(bundleIDs) == 0 {
		return nil, nil
	}
	var rows []domain.BundleFeature
	err := db.WithContext(ctx).
		Where("bundle_id IN ?", bundleIDs).
		Order("feature_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
