package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingPeriod is the purchase cadence for add-ons and bundles.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodAnnual  BillingPeriod = "annual"
)

var ErrInvalidBillingPeriod = errors.New("invalid_billing_period")

// ParseBillingPeriod validates the period literal.
func ParseBillingPeriod(raw string) (BillingPeriod, error) {
	switch BillingPeriod(strings.ToLower(strings.TrimSpace(raw))) {
	case BillingPeriodMonthly:
		return BillingPeriodMonthly, nil
	case BillingPeriodAnnual:
		return BillingPeriodAnnual, nil
	default:
		return "", ErrInvalidBillingPeriod
	}
}

// NextEnd returns the period end anchored at start: +1 calendar month
// for monthly, +1 calendar year for annual.
func (p BillingPeriod) NextEnd(start time.Time) time.Time {
	if p == BillingPeriodAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// AddOn is a purchasable feature. Prices are whole rupees.
type AddOn struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	FeatureKey   string         `gorm:"uniqueIndex" json:"feature_key"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `gorm:"index" json:"category"`
	PriceMonthly int64          `json:"price_monthly"`
	PriceAnnual  int64          `json:"price_annual"`
	TargetRoles  datatypes.JSON `json:"target_roles"`
	Active       bool           `gorm:"index" json:"active"`
	SortOrder    int            `json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (AddOn) TableName() string { return "addons" }

// Bundle groups several add-ons at a discounted combined price.
type Bundle struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug               string       `gorm:"uniqueIndex" json:"slug"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	PriceMonthly       int64        `json:"price_monthly"`
	PriceAnnual        int64        `json:"price_annual"`
	DiscountPercentage int          `json:"discount_percentage"`
	Active             bool         `gorm:"index" json:"active"`
	DisplayOrder       int          `json:"display_order"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (Bundle) TableName() string { return "bundles" }

// BundleFeature links a bundle to a member feature key.
type BundleFeature struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	BundleID   snowflake.ID `gorm:"index"`
	FeatureKey string       `gorm:"index"`
	CreatedAt  time.Time
}

func (BundleFeature) TableName() string { return "bundle_features" }

// Price returns the catalog price for the billing period.
func (a AddOn) Price(period BillingPeriod) int64 {
	if period == BillingPeriodAnnual {
		return a.PriceAnnual
	}
	return a.PriceMonthly
}

func (b Bundle) Price(period BillingPeriod) int64 {
	if period == BillingPeriodAnnual {
		return b.PriceAnnual
	}
	return b.PriceMonthly
}
