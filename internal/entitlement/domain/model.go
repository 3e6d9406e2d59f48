package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusGracePeriod Status = "grace_period"
	StatusExpired     Status = "expired"
)

type SourceType string

const (
	SourceAddOn  SourceType = "addon"
	SourceBundle SourceType = "bundle"
)

// Entitlement grants one user one feature for a paid period.
// At most one live row (active or grace_period with an unexpired end
// date) may exist per (user, feature).
type Entitlement struct {
	ID            snowflake.ID                `gorm:"primaryKey" json:"id"`
	UserID        string                      `gorm:"index:idx_entitlements_user_feature" json:"user_id"`
	FeatureKey    string                      `gorm:"index:idx_entitlements_user_feature" json:"feature_key"`
	SourceType    SourceType                  `json:"source_type"`
	BundleID      *snowflake.ID               `json:"bundle_id,omitempty"`
	BillingPeriod catalogdomain.BillingPeriod `json:"billing_period"`
	StartDate     time.Time                   `json:"start_date"`
	EndDate       time.Time                   `gorm:"index" json:"end_date"`
	PricePaid     int64                       `json:"price_paid"`
	Status        Status                      `gorm:"index" json:"status"`
	AutoRenew     bool                        `json:"auto_renew"`
	CancelledAt   *time.Time                  `json:"cancelled_at,omitempty"`
	// LastReminderDays records the smallest reminder threshold already
	// sent for the current period, so re-runs never re-send.
	LastReminderDays *int   `json:"-"`
	OrderID          string `gorm:"index" json:"order_id"`
	PaymentID        string `json:"payment_id"`
	// PaymentRef is the stored gateway reference charged on auto-renewal.
	PaymentRef string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Entitlement) TableName() string { return "entitlements" }

// Live reports whether the row still grants access at the given time,
// with the configured grace window.
func (e Entitlement) Live(at time.Time, grace time.Duration) bool {
	if e.Status != StatusActive && e.Status != StatusGracePeriod {
		return false
	}
	return !e.EndDate.Before(at.Add(-grace))
}
