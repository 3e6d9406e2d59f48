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
	"github.com/rareminds/skillpassport-billing/internal/organization/domain"
	"github.com/rareminds/skillpassport-billing/internal/organization/repository"
	"github.com/rareminds/skillpassport-billing/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

type fixture struct {
	db  *gorm.DB
	svc domain.Service
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:organization%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.OrgSubscription{},
		&domain.LicensePool{},
		&domain.LicenseAssignment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		Repo:  repository.Provide(),
		GenID: node,
		Clock: clock.NewFakeClock(now),
	})

	return &fixture{db: db, svc: svc, now: now}
}

func (f *fixture) createSubscription(t *testing.T, seats int) *domain.OrgSubscription {
	t.Helper()
	sub, err := f.svc.CreateSubscription(context.Background(), domain.CreateSubscriptionRequest{
		OrgID:      "org_1",
		Plan:       "campus",
		TotalSeats: seats,
		EndDate:    f.now.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	return sub
}

func (f *fixture) assign(t *testing.T, sub *domain.OrgSubscription, userID string) *domain.LicenseAssignment {
	t.Helper()
	assignment, err := f.svc.AssignSeat(context.Background(), domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            userID,
	})
	require.NoError(t, err)
	return assignment
}

func TestCreateSubscriptionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubscription(ctx, domain.CreateSubscriptionRequest{
		OrgID:      "org_1",
		TotalSeats: 0,
		EndDate:    f.now.AddDate(1, 0, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSeatCount)

	_, err = f.svc.CreateSubscription(ctx, domain.CreateSubscriptionRequest{
		OrgID:      "org_1",
		TotalSeats: 10,
		EndDate:    f.now.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestAssignSeatExhaustsSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 2)

	f.assign(t, sub, "user_1")
	f.assign(t, sub, "user_2")

	_, err := f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_3",
	})
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)

	var row domain.OrgSubscription
	require.NoError(t, f.db.First(&row, "id = ?", sub.ID).Error)
	assert.Equal(t, 2, row.AssignedSeats)
}

func TestAssignSeatRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 5)

	f.assign(t, sub, "user_1")

	_, err := f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_1",
	})
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyAssigned)
}

func TestAssignSeatRejectsInactiveSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 5)
	require.NoError(t, f.db.Model(&domain.OrgSubscription{}).
		Where("id = ?", sub.ID).
		Update("status", domain.SubscriptionStatusCancelled).Error)

	_, err := f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_1",
	})
	assert.ErrorIs(t, err, domain.ErrSubscriptionInactive)
}

func TestAssignSeatThroughPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 10)

	pool, err := f.svc.CreatePool(ctx, domain.CreatePoolRequest{
		OrgSubscriptionID: sub.ID.String(),
		Name:              "engineering",
		TotalSeats:        1,
	})
	require.NoError(t, err)

	assignment, err := f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		PoolID:            pool.ID.String(),
		UserID:            "user_1",
	})
	require.NoError(t, err)
	require.NotNil(t, assignment.PoolID)
	assert.Equal(t, pool.ID, *assignment.PoolID)

	// Pool is full even though the subscription has seats left.
	_, err = f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		PoolID:            pool.ID.String(),
		UserID:            "user_2",
	})
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)

	var poolRow domain.LicensePool
	require.NoError(t, f.db.First(&poolRow, "id = ?", pool.ID).Error)
	assert.Equal(t, 1, poolRow.AssignedSeats)
}

func TestCreatePoolCannotExceedSubscriptionSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 5)

	_, err := f.svc.CreatePool(ctx, domain.CreatePoolRequest{
		OrgSubscriptionID: sub.ID.String(),
		Name:              "oversized",
		TotalSeats:        6,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSeatCount)
}

func TestRevokeSeatReleasesCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 10)

	pool, err := f.svc.CreatePool(ctx, domain.CreatePoolRequest{
		OrgSubscriptionID: sub.ID.String(),
		Name:              "engineering",
		TotalSeats:        3,
	})
	require.NoError(t, err)

	_, err = f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		PoolID:            pool.ID.String(),
		UserID:            "user_1",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeSeat(ctx, domain.RevokeSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_1",
	}))

	var subRow domain.OrgSubscription
	require.NoError(t, f.db.First(&subRow, "id = ?", sub.ID).Error)
	assert.Equal(t, 0, subRow.AssignedSeats)

	var poolRow domain.LicensePool
	require.NoError(t, f.db.First(&poolRow, "id = ?", pool.ID).Error)
	assert.Equal(t, 0, poolRow.AssignedSeats)

	// The seat is free again for the same user.
	f.assign(t, sub, "user_1")
}

func TestRevokeSeatWithoutAssignment(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubscription(t, 5)

	err := f.svc.RevokeSeat(context.Background(), domain.RevokeSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_1",
	})
	assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
}

func TestFindActiveLicenseEffectiveEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 5)

	// Assignment expiry earlier than the subscription end caps the
	// license.
	expiry := f.now.AddDate(0, 3, 0)
	_, err := f.svc.AssignSeat(ctx, domain.AssignSeatRequest{
		OrgSubscriptionID: sub.ID.String(),
		UserID:            "user_1",
		ExpiresAt:         &expiry,
	})
	require.NoError(t, err)

	license, err := f.svc.FindActiveLicense(ctx, "user_1", f.now)
	require.NoError(t, err)
	require.NotNil(t, license)
	assert.Equal(t, expiry, license.EffectiveEnd)
	assert.Equal(t, sub.ID, license.Subscription.ID)
}

func TestFindActiveLicenseSkipsInactiveSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.createSubscription(t, 5)
	f.assign(t, sub, "user_1")

	require.NoError(t, f.db.Model(&domain.OrgSubscription{}).
		Where("id = ?", sub.ID).
		Update("status", domain.SubscriptionStatusExpired).Error)

	license, err := f.svc.FindActiveLicense(ctx, "user_1", f.now)
	require.NoError(t, err)
	assert.Nil(t, license)
}

func TestFindActiveLicenseNone(t *testing.T) {
	f := newFixture(t)

	license, err := f.svc.FindActiveLicense(context.Background(), "user_1", f.now)
	require.NoError(t, err)
	assert.Nil(t, license)
}

func TestListLicenses(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubscription(t, 5)
	f.assign(t, sub, "user_1")
	f.assign(t, sub, "user_2")

	rows, info, err := f.svc.ListLicenses(context.Background(), sub.ID.String(), pagination.Pagination{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.False(t, info.HasMore)

	_, _, err = f.svc.ListLicenses(context.Background(), "not-a-number", pagination.Pagination{})
	assert.ErrorIs(t, err, domain.ErrInvalidSubscriptionID)
}

func TestListLicensesPagination(t *testing.T) {
	f := newFixture(t)
	sub := f.createSubscription(t, 5)
	for _, user := range []string{"user_1", "user_2", "user_3"} {
		f.assign(t, sub, user)
	}

	first, info, err := f.svc.ListLicenses(context.Background(), sub.ID.String(), pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)

	second, info, err := f.svc.ListLicenses(context.Background(), sub.ID.String(), pagination.Pagination{
		PageSize:  2,
		PageToken: info.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, info.HasMore)

	// Newest-first keyset order with no overlap across pages.
	seen := map[string]struct{}{}
	for _, row := range append(first, second...) {
		_, dup := seen[row.UserID]
		assert.False(t, dup)
		seen[row.UserID] = struct{}{}
	}

	_, _, err = f.svc.ListLicenses(context.Background(), sub.ID.String(), pagination.Pagination{PageToken: "%%%"})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
