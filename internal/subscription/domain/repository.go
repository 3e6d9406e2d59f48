package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ListLiveByUser returns rows with status active, paused or
	// cancelled and end_date on or after cutoff.
	ListLiveByUser(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) ([]Subscription, error)
	CountByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListExpirable(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]Subscription, error)
	MarkExpired(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
}
