package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, row *Entitlement) error
	Save(ctx context.Context, db *gorm.DB, row *Entitlement) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entitlement, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]Entitlement, error)
	// ListLiveByUser returns rows with status active or grace_period and
	// end_date on or after cutoff.
	ListLiveByUser(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) ([]Entitlement, error)
	ListLiveByUserFeature(ctx context.Context, db *gorm.DB, userID, featureKey string, cutoff time.Time) ([]Entitlement, error)
	CountByUserFeature(ctx context.Context, db *gorm.DB, userID, featureKey string) (int64, error)
	CountByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	// SupersedeLive expires any live rows for (user, feature) so a new
	// grant stays the single live row.
	SupersedeLive(ctx context.Context, db *gorm.DB, userID, featureKey string, now time.Time) error

	ListExpirable(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]Entitlement, error)
	MarkExpired(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
	ListGraceCandidates(ctx context.Context, db *gorm.DB, now, cutoff time.Time, limit int) ([]Entitlement, error)
	MarkGracePeriod(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
	ListReminderCandidates(ctx context.Context, db *gorm.DB, now, horizon time.Time, limit int) ([]Entitlement, error)
	ListAutoRenewDue(ctx context.Context, db *gorm.DB, now, windowEnd time.Time, limit int) ([]Entitlement, error)
}
