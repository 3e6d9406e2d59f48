package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertSubscription(ctx context.Context, db *gorm.DB, row *OrgSubscription) error
	FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*OrgSubscription, error)
	SaveSubscription(ctx context.Context, db *gorm.DB, row *OrgSubscription) error

	InsertPool(ctx context.Context, db *gorm.DB, row *LicensePool) error
	FindPool(ctx context.Context, db *gorm.DB, id snowflake.ID) (*LicensePool, error)
	SavePool(ctx context.Context, db *gorm.DB, row *LicensePool) error

	InsertAssignment(ctx context.Context, db *gorm.DB, row *LicenseAssignment) error
	SaveAssignment(ctx context.Context, db *gorm.DB, row *LicenseAssignment) error
	FindActiveAssignment(ctx context.Context, db *gorm.DB, orgSubscriptionID snowflake.ID, userID string) (*LicenseAssignment, error)
	// ListAssignments pages newest-first; afterID narrows to rows older
	// than the cursor and limit bounds the page.
	ListAssignments(ctx context.Context, db *gorm.DB, orgSubscriptionID snowflake.ID, afterID snowflake.ID, limit int) ([]LicenseAssignment, error)
	// ListActiveAssignmentsByUser returns active assignments whose
	// expiry (when set) is after the given time.
	ListActiveAssignmentsByUser(ctx context.Context, db *gorm.DB, userID string, at time.Time) ([]LicenseAssignment, error)
}
