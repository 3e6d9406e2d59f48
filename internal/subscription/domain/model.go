package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Subscription is an individually purchased platform plan. The access
// evaluator reads it alongside entitlements; paused and cancelled rows
// keep granting access until their end date.
type Subscription struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"index" json:"user_id"`
	PlanID      string       `json:"plan_id"`
	Status      Status       `gorm:"index" json:"status"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `gorm:"index" json:"end_date"`
	AutoRenew   bool         `json:"auto_renew"`
	PausedAt    *time.Time   `json:"paused_at,omitempty"`
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
