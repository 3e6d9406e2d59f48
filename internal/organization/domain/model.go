package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// OrgSubscription is a seat-limited plan an organization buys for its
// members.
type OrgSubscription struct {
	ID            snowflake.ID       `gorm:"primaryKey" json:"id"`
	OrgID         string             `gorm:"index" json:"org_id"`
	Plan          string             `json:"plan"`
	TotalSeats    int                `json:"total_seats"`
	AssignedSeats int                `json:"assigned_seats"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `gorm:"index" json:"end_date"`
	Status        SubscriptionStatus `gorm:"index" json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (OrgSubscription) TableName() string { return "org_subscriptions" }

// LicensePool carves an org subscription's seats into named groups.
type LicensePool struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgSubscriptionID snowflake.ID `gorm:"index" json:"org_subscription_id"`
	Name              string       `json:"name"`
	TotalSeats        int          `json:"total_seats"`
	AssignedSeats     int          `json:"assigned_seats"`
	AutoAssign        bool         `json:"auto_assign"`
	Active            bool         `json:"active"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (LicensePool) TableName() string { return "license_pools" }

type AssignmentStatus string

const (
	AssignmentStatusActive  AssignmentStatus = "active"
	AssignmentStatusRevoked AssignmentStatus = "revoked"
)

// LicenseAssignment ties one user to one seat. A user holds at most one
// active assignment per org subscription.
type LicenseAssignment struct {
	ID                snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgSubscriptionID snowflake.ID     `gorm:"index" json:"org_subscription_id"`
	PoolID            *snowflake.ID    `json:"pool_id,omitempty"`
	UserID            string           `gorm:"index" json:"user_id"`
	Status            AssignmentStatus `gorm:"index" json:"status"`
	AssignedAt        time.Time        `json:"assigned_at"`
	ExpiresAt         *time.Time       `json:"expires_at,omitempty"`
	RevokedAt         *time.Time       `json:"revoked_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (LicenseAssignment) TableName() string { return "license_assignments" }

// License is an active assignment joined with its subscription. The
// effective end is the earlier of the assignment expiry and the
// subscription end date.
type License struct {
	Assignment   LicenseAssignment `json:"assignment"`
	Subscription OrgSubscription   `json:"subscription"`
	EffectiveEnd time.Time         `json:"effective_end"`
}
