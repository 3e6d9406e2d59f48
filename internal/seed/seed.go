package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	discountdomain "github.com/rareminds/skillpassport-billing/internal/discount/domain"
	pkgdb "github.com/rareminds/skillpassport-billing/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDemoCatalog seeds a small catalog of add-ons, bundles and
// discount codes for development and staging environments. Rows are
// matched by their natural key, so re-running never duplicates.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keys, err := ensureAddOns(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureBundle(ctx, tx, node, keys); err != nil {
			return err
		}
		return ensureDiscountCodes(ctx, tx, node)
	})
}

func ensureAddOns(ctx context.Context, tx *gorm.DB, node *snowflake.Node) ([]string, error) {
	now := time.Now().UTC()
	addons := []catalogdomain.AddOn{
		{
			FeatureKey:   "resume_builder",
			Name:         "Resume Builder",
			Description:  "AI-assisted resume drafting and review",
			Category:     "career",
			PriceMonthly: 499,
			PriceAnnual:  4990,
			TargetRoles:  datatypes.JSON(`["student"]`),
			SortOrder:    1,
		},
		{
			FeatureKey:   "mock_interviews",
			Name:         "Mock Interviews",
			Description:  "Recorded practice interviews with feedback",
			Category:     "career",
			PriceMonthly: 299,
			PriceAnnual:  2990,
			TargetRoles:  datatypes.JSON(`["student"]`),
			SortOrder:    2,
		},
		{
			FeatureKey:   "skill_tests",
			Name:         "Skill Tests",
			Description:  "Certified skill assessments",
			Category:     "career",
			PriceMonthly: 199,
			PriceAnnual:  1990,
			TargetRoles:  datatypes.JSON(`["student"]`),
			SortOrder:    3,
		},
		{
			FeatureKey:   "talent_search",
			Name:         "Talent Search",
			Description:  "Candidate discovery across campuses",
			Category:     "recruiting",
			PriceMonthly: 999,
			PriceAnnual:  9990,
			TargetRoles:  datatypes.JSON(`["recruiter"]`),
			SortOrder:    4,
		},
	}

	keys := make([]string, 0, 3)
	for _, addon := range addons {
		var existing catalogdomain.AddOn
		err := tx.WithContext(ctx).Where("feature_key = ?", addon.FeatureKey).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		addon.ID = node.Generate()
		addon.Active = true
		addon.CreatedAt = now
		addon.UpdatedAt = now
		// Another replica may seed the same row between the lookup and
		// the insert; the unique key settles the race.
		if err := tx.WithContext(ctx).Create(&addon).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
	}
	for _, addon := range addons[:3] {
		keys = append(keys, addon.FeatureKey)
	}
	return keys, nil
}

func ensureBundle(ctx context.Context, tx *gorm.DB, node *snowflake.Node, featureKeys []string) error {
	const slug = "career-pack"

	var existing catalogdomain.Bundle
	err := tx.WithContext(ctx).Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	bundle := catalogdomain.Bundle{
		ID:                 node.Generate(),
		Slug:               slug,
		Name:               "Career Pack",
		Description:        "Resume builder, mock interviews and skill tests together",
		PriceMonthly:       799,
		PriceAnnual:        7990,
		DiscountPercentage: 20,
		Active:             true,
		DisplayOrder:       1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(&bundle).Error; err != nil {
		return err
	}

	for _, key := range featureKeys {
		member := catalogdomain.BundleFeature{
			ID:         node.Generate(),
			BundleID:   bundle.ID,
			FeatureKey: key,
			CreatedAt:  now,
		}
		if err := tx.WithContext(ctx).Create(&member).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDiscountCodes(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	cap100 := int64(100)
	maxUses := 500
	codes := []discountdomain.DiscountCode{
		{
			Code:              "WELCOME10",
			DiscountType:      discountdomain.DiscountTypePercentage,
			DiscountValue:     10,
			MaxDiscountAmount: &cap100,
			Active:            true,
		},
		{
			Code:          "CAMPUS50",
			DiscountType:  discountdomain.DiscountTypeFlat,
			DiscountValue: 50,
			MaxUses:       &maxUses,
			Active:        true,
		},
	}

	for _, code := range codes {
		var existing discountdomain.DiscountCode
		err := tx.WithContext(ctx).Where("code = ?", code.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		code.ID = node.Generate()
		if err := tx.WithContext(ctx).Create(&code).Error; err != nil && !pkgdb.IsDuplicateKeyErr(err) {
			return err
		}
	}
	return nil
}
