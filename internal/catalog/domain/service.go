package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListCatalog(ctx context.Context, req ListRequest) (*CatalogResponse, error)
	GetAddOn(ctx context.Context, featureKey string) (*AddOn, error)
	GetBundle(ctx context.Context, bundleID string) (*BundleDetail, error)
	// ResolveAddOnPrice and ResolveBundlePrice apply test pricing when
	// the deployment is configured for it.
	ResolveAddOnPrice(ctx context.Context, featureKey string, period BillingPeriod) (int64, error)
	ResolveBundlePrice(ctx context.Context, bundleID string, period BillingPeriod) (*BundlePrice, error)
}

type ListRequest struct {
	Category string
	Role     string
}

type CatalogResponse struct {
	AddOns  []AddOn        `json:"addons"`
	Bundles []BundleDetail `json:"bundles"`
}

type BundleDetail struct {
	Bundle
	FeatureKeys []string `json:"feature_keys"`
}

type BundlePrice struct {
	Bundle      *Bundle
	FeatureKeys []string
	Price       int64
}

var (
	ErrAddOnNotFound    = errors.New("addon_not_found")
	ErrBundleNotFound   = errors.New("bundle_not_found")
	ErrBundleEmpty      = errors.New("bundle_has_no_features")
	ErrInvalidBundleID  = errors.New("invalid_bundle_id")
	ErrAddOnUnavailable = errors.New("addon_unavailable")
)
