package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/discount/domain"
	"github.com/rareminds/skillpassport-billing/internal/discount/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:discount%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DiscountCode{}))
	return db
}

func newService(t *testing.T, db *gorm.DB, now time.Time) domain.Service {
	t.Helper()
	return New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(now),
	})
}

// A shared node: fresh nodes restart at step 0, so per-call nodes
// collide when two codes are seeded within the same millisecond.
var seedNode *snowflake.Node

func seedCode(t *testing.T, db *gorm.DB, row domain.DiscountCode) {
	t.Helper()
	if seedNode == nil {
		node, err := snowflake.NewNode(1)
		require.NoError(t, err)
		seedNode = node
	}
	if row.ID == 0 {
		row.ID = seedNode.Generate()
	}
	require.NoError(t, db.Create(&row).Error)
}

func intPtr(v int) *int              { return &v }
func i64Ptr(v int64) *int64          { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestResolvePercentageWithCap(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	seedCode(t, db, domain.DiscountCode{
		Code:              "SAVE20",
		DiscountType:      domain.DiscountTypePercentage,
		DiscountValue:     20,
		MaxDiscountAmount: i64Ptr(50),
		Active:            true,
	})
	svc := newService(t, db, now)

	res, err := svc.Resolve(context.Background(), "save20", 1000)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, "SAVE20", res.Code)
	// 20% of 1000 is 200, capped at 50.
	assert.Equal(t, int64(50), res.Amount)
}

func TestResolveFullDiscountNoCap(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	seedCode(t, db, domain.DiscountCode{
		Code:          "FREE100",
		DiscountType:  domain.DiscountTypePercentage,
		DiscountValue: 100,
		Active:        true,
	})
	svc := newService(t, db, now)

	res, err := svc.Resolve(context.Background(), "FREE100", 499)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(499), res.Amount)
}

func TestResolveFlatClampedToBasePrice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	seedCode(t, db, domain.DiscountCode{
		Code:          "FLAT500",
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: 500,
		Active:        true,
	})
	svc := newService(t, db, now)

	res, err := svc.Resolve(context.Background(), "FLAT500", 200)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, int64(200), res.Amount)
}

func TestResolveUnusableCodesAreSilent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	seedCode(t, db, domain.DiscountCode{
		Code:          "INACTIVE",
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: 100,
		Active:        false,
	})
	seedCode(t, db, domain.DiscountCode{
		Code:          "EXPIRED",
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: 100,
		Active:        true,
		ValidUntil:    timePtr(now.Add(-time.Hour)),
	})
	seedCode(t, db, domain.DiscountCode{
		Code:          "NOTYET",
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: 100,
		Active:        true,
		ValidFrom:     timePtr(now.Add(time.Hour)),
	})
	seedCode(t, db, domain.DiscountCode{
		Code:          "USEDUP",
		DiscountType:  domain.DiscountTypeFlat,
		DiscountValue: 100,
		Active:        true,
		MaxUses:       intPtr(5),
		CurrentUses:   5,
	})
	svc := newService(t, db, now)

	for _, code := range []string{"INACTIVE", "EXPIRED", "NOTYET", "USEDUP", "UNKNOWN"} {
		res, err := svc.Resolve(context.Background(), code, 1000)
		require.NoError(t, err, code)
		assert.False(t, res.Applied, code)
		assert.Zero(t, res.Amount, code)
	}
}

func TestResolveEmptyCodeIsNoop(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	svc := newService(t, db, now)

	res, err := svc.Resolve(context.Background(), "   ", 1000)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Empty(t, res.Code)
}

func TestIncrementUsage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDB(t)
	seedCode(t, db, domain.DiscountCode{
		Code:          "SAVE20",
		DiscountType:  domain.DiscountTypePercentage,
		DiscountValue: 20,
		Active:        true,
		MaxUses:       intPtr(1),
	})
	svc := newService(t, db, now)

	require.NoError(t, svc.IncrementUsage(context.Background(), db, "save20"))

	var row domain.DiscountCode
	require.NoError(t, db.Where("code = ?", "SAVE20").First(&row).Error)
	assert.Equal(t, 1, row.CurrentUses)

	// Exhausted now, so it no longer applies.
	res, err := svc.Resolve(context.Background(), "SAVE20", 1000)
	require.NoError(t, err)
	assert.False(t, res.Applied)
}
