package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/cache"
	"github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"github.com/rareminds/skillpassport-billing/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config controls price resolution. When TestPricing is on every
// purchasable item resolves to TestPrice, so payment flows can be
// exercised end to end without real charges.
type Config struct {
	TestPricing bool
	TestPrice   int64
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		TestPricing: cfg.TestPricing,
		TestPrice:   cfg.TestPrice,
	}
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Cache  *cache.CatalogCache `optional:"true"`
	Config Config              `optional:"true"`
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache *cache.CatalogCache
	cfg   Config
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("catalog"),
		repo:  p.Repo,
		cache: p.Cache,
		cfg:   p.Config,
	}
}

func (s *service) ListCatalog(ctx context.Context, req domain.ListRequest) (*domain.CatalogResponse, error) {
	if cached, ok := s.cache.Get(req.Category, req.Role); ok {
		return cached, nil
	}

	addons, err := s.repo.ListAddOns(ctx, s.db, strings.TrimSpace(req.Category))
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(req.Role)
	filtered := make([]domain.AddOn, 0, len(addons))
	seen := make(map[string]struct{}, len(addons))
	for _, addon := range addons {
		if !roleMatches(addon, role) {
			continue
		}
		if _, dup := seen[addon.FeatureKey]; dup {
			continue
		}
		seen[addon.FeatureKey] = struct{}{}
		filtered = append(filtered, addon)
	}

	bundles, err := s.listBundleDetails(ctx)
	if err != nil {
		return nil, err
	}

	res := &domain.CatalogResponse{AddOns: filtered, Bundles: bundles}
	s.cache.Set(req.Category, req.Role, res)
	return res, nil
}

func (s *service) listBundleDetails(ctx context.Context) ([]domain.BundleDetail, error) {
	bundles, err := s.repo.ListBundles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, nil
	}

	ids := make([]snowflake.ID, 0, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.ID)
	}
	members, err := s.repo.ListBundleFeatures(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	byBundle := make(map[snowflake.ID][]string, len(bundles))
	for _, m := range members {
		byBundle[m.BundleID] = append(byBundle[m.BundleID], m.FeatureKey)
	}

	details := make([]domain.BundleDetail, 0, len(bundles))
	for _, b := range bundles {
		details = append(details, domain.BundleDetail{
			Bundle:      b,
			FeatureKeys: byBundle[b.ID],
		})
	}
	return details, nil
}

func (s *service) GetAddOn(ctx context.Context, featureKey string) (*domain.AddOn, error) {
	addon, err := s.repo.FindAddOnByFeatureKey(ctx, s.db, strings.TrimSpace(featureKey))
	if err != nil {
		return nil, err
	}
	if addon == nil {
		return nil, domain.ErrAddOnNotFound
	}
	return addon, nil
}

func (s *service) GetBundle(ctx context.Context, bundleID string) (*domain.BundleDetail, error) {
	id, err := parseBundleID(bundleID)
	if err != nil {
		return nil, err
	}
	bundle, err := s.repo.FindBundle(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, domain.ErrBundleNotFound
	}
	members, err := s.repo.ListBundleFeatures(ctx, s.db, []snowflake.ID{bundle.ID})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, m.FeatureKey)
	}
	return &domain.BundleDetail{Bundle: *bundle, FeatureKeys: keys}, nil
}

func (s *service) ResolveAddOnPrice(ctx context.Context, featureKey string, period domain.BillingPeriod) (int64, error) {
	addon, err := s.GetAddOn(ctx, featureKey)
	if err != nil {
		return 0, err
	}
	if !addon.Active {
		return 0, domain.ErrAddOnUnavailable
	}
	if s.cfg.TestPricing {
		return s.cfg.TestPrice, nil
	}
	return addon.Price(period), nil
}

func (s *service) ResolveBundlePrice(ctx context.Context, bundleID string, period domain.BillingPeriod) (*domain.BundlePrice, error) {
	detail, err := s.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	if !detail.Active {
		return nil, domain.ErrBundleNotFound
	}
	if len(detail.FeatureKeys) == 0 {
		return nil, domain.ErrBundleEmpty
	}
	price := detail.Price(period)
	if s.cfg.TestPricing {
		price = s.cfg.TestPrice
	}
	bundle := detail.Bundle
	return &domain.BundlePrice{
		Bundle:      &bundle,
		FeatureKeys: detail.FeatureKeys,
		Price:       price,
	}, nil
}

func roleMatches(addon domain.AddOn, role string) bool {
	if role == "" || len(addon.TargetRoles) == 0 {
		return true
	}
	var roles []string
	if err := json.Unmarshal(addon.TargetRoles, &roles); err != nil {
		return true
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func parseBundleID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidBundleID
	}
	return snowflake.ID(parsed), nil
}
