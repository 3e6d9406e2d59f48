package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusCompleted         Status = "completed"
	StatusSignatureFailed   Status = "signature_failed"
	StatusEntitlementFailed Status = "entitlement_failed"
)

// PendingOrder records a gateway order awaiting payment verification.
// The row is only written after the gateway accepted the order, and its
// status column is the exactly-once guard for activation: a completed,
// signature_failed or entitlement_failed row is never claimed again.
type PendingOrder struct {
	ID             snowflake.ID                  `gorm:"primaryKey"`
	OrderID        string                        `gorm:"uniqueIndex"`
	UserID         string                        `gorm:"index"`
	SourceType     entitlementdomain.SourceType
	FeatureKey     *string
	BundleID       *snowflake.ID
	FeatureKeys    datatypes.JSON
	BillingPeriod  catalogdomain.BillingPeriod
	BasePrice      int64
	DiscountCode   *string
	DiscountAmount int64
	FinalPrice     int64
	Currency       string
	Status         Status `gorm:"index"`
	PaymentID      *string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PendingOrder) TableName() string { return "pending_orders" }
