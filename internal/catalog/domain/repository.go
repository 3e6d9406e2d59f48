package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListAddOns(ctx context.Context, db *gorm.DB, category string) ([]AddOn, error)
	FindAddOnByFeatureKey(ctx context.Context, db *gorm.DB, featureKey string) (*AddOn, error)
	ListBundles(ctx context.Context, db *gorm.DB) ([]Bundle, error)
	FindBundle(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bundle, error)
	ListBundleFeatures(ctx context.Context, db *gorm.DB, bundleIDs []snowflake.ID) ([]BundleFeature, error)
}
