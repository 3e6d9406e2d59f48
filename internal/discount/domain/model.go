package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFlat       DiscountType = "flat"
)

// DiscountCode is a promotional code. Values are whole rupees for flat
// codes and percent points for percentage codes.
type DiscountCode struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Code              string       `gorm:"uniqueIndex"`
	Description       string
	DiscountType      DiscountType
	DiscountValue     int64
	MaxDiscountAmount *int64
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	MaxUses           *int
	CurrentUses       int
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (DiscountCode) TableName() string { return "discount_codes" }
