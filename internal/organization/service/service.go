package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/organization/domain"
	"github.com/rareminds/skillpassport-billing/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("organization"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *service) CreateSubscription(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.OrgSubscription, error) {
	if req.TotalSeats <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}
	now := s.clock.Now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	if !req.EndDate.After(start) {
		return nil, domain.ErrInvalidPeriod
	}

	row := &domain.OrgSubscription{
		ID:         s.genID.Generate(),
		OrgID:      strings.TrimSpace(req.OrgID),
		Plan:       strings.TrimSpace(req.Plan),
		TotalSeats: req.TotalSeats,
		StartDate:  start,
		EndDate:    req.EndDate,
		Status:     domain.SubscriptionStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertSubscription(ctx, s.db, row); err != nil {
		return nil, err
	}

	s.log.Info("org subscription created",
		zap.String("org_id", row.OrgID),
		zap.String("plan", row.Plan),
		zap.Int("total_seats", row.TotalSeats),
	)
	return row, nil
}

func (s *service) CreatePool(ctx context.Context, req domain.CreatePoolRequest) (*domain.LicensePool, error) {
	subID, err := parseID(req.OrgSubscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return nil, err
	}
	if req.TotalSeats <= 0 {
		return nil, domain.ErrInvalidSeatCount
	}

	sub, err := s.repo.FindSubscription(ctx, s.db, subID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	if req.TotalSeats > sub.TotalSeats {
		return nil, domain.ErrInvalidSeatCount
	}

	now := s.clock.Now()
	row := &domain.LicensePool{
		ID:                s.genID.Generate(),
		OrgSubscriptionID: sub.ID,
		Name:              strings.TrimSpace(req.Name),
		TotalSeats:        req.TotalSeats,
		AutoAssign:        req.AutoAssign,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.InsertPool(ctx, s.db, row); err != nil {
		return nil, err
	}
	return row, nil
}

// AssignSeat claims a seat inside one transaction so two concurrent
// assignments can never oversubscribe the pool.
func (s *service) AssignSeat(ctx context.Context, req domain.AssignSeatRequest) (*domain.LicenseAssignment, error) {
	subID, err := parseID(req.OrgSubscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrAssignmentNotFound
	}

	now := s.clock.Now()
	var assignment *domain.LicenseAssignment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindSubscription(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrSubscriptionNotFound
		}
		if sub.Status != domain.SubscriptionStatusActive || !sub.EndDate.After(now) {
			return domain.ErrSubscriptionInactive
		}
		if sub.AssignedSeats >= sub.TotalSeats {
			return domain.ErrNoSeatsAvailable
		}

		existing, err := s.repo.FindActiveAssignment(ctx, tx, sub.ID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrSeatAlreadyAssigned
		}

		var poolID *snowflake.ID
		if strings.TrimSpace(req.PoolID) != "" {
			id, err := parseID(req.PoolID, domain.ErrInvalidPoolID)
			if err != nil {
				return err
			}
			pool, err := s.repo.FindPool(ctx, tx, id)
			if err != nil {
				return err
			}
			if pool == nil || pool.OrgSubscriptionID != sub.ID || !pool.Active {
				return domain.ErrPoolNotFound
			}
			if pool.AssignedSeats >= pool.TotalSeats {
				return domain.ErrNoSeatsAvailable
			}
			pool.AssignedSeats++
			pool.UpdatedAt = now
			if err := s.repo.SavePool(ctx, tx, pool); err != nil {
				return err
			}
			poolID = &pool.ID
		}

		assignment = &domain.LicenseAssignment{
			ID:                s.genID.Generate(),
			OrgSubscriptionID: sub.ID,
			PoolID:            poolID,
			UserID:            userID,
			Status:            domain.AssignmentStatusActive,
			AssignedAt:        now,
			ExpiresAt:         req.ExpiresAt,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.InsertAssignment(ctx, tx, assignment); err != nil {
			return err
		}

		sub.AssignedSeats++
		sub.UpdatedAt = now
		return s.repo.SaveSubscription(ctx, tx, sub)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.log.Info("seat assigned",
		zap.String("user_id", userID),
		zap.String("org_subscription_id", subID.String()),
	)
	return assignment, nil
}

func (s *service) RevokeSeat(ctx context.Context, req domain.RevokeSeatRequest) error {
	subID, err := parseID(req.OrgSubscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignment, err := s.repo.FindActiveAssignment(ctx, tx, subID, strings.TrimSpace(req.UserID))
		if err != nil {
			return err
		}
		if assignment == nil {
			return domain.ErrAssignmentNotFound
		}

		assignment.Status = domain.AssignmentStatusRevoked
		assignment.RevokedAt = &now
		assignment.UpdatedAt = now
		if err := s.repo.SaveAssignment(ctx, tx, assignment); err != nil {
			return err
		}

		sub, err := s.repo.FindSubscription(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub != nil && sub.AssignedSeats > 0 {
			sub.AssignedSeats--
			sub.UpdatedAt = now
			if err := s.repo.SaveSubscription(ctx, tx, sub); err != nil {
				return err
			}
		}

		if assignment.PoolID != nil {
			pool, err := s.repo.FindPool(ctx, tx, *assignment.PoolID)
			if err != nil {
				return err
			}
			if pool != nil && pool.AssignedSeats > 0 {
				pool.AssignedSeats--
				pool.UpdatedAt = now
				return s.repo.SavePool(ctx, tx, pool)
			}
		}
		return nil
	})
}

func (s *service) ListLicenses(ctx context.Context, orgSubscriptionID string, page pagination.Pagination) ([]domain.LicenseAssignment, *pagination.PageInfo, error) {
	subID, err := parseID(orgSubscriptionID, domain.ErrInvalidSubscriptionID)
	if err != nil {
		return nil, nil, err
	}
	cursor, err := pagination.DecodeCursor(page.PageToken)
	if err != nil {
		return nil, nil, err
	}

	var afterID snowflake.ID
	if cursor != nil {
		afterID = snowflake.ID(cursor.ID)
	}
	limit := page.Limit()

	rows, err := s.repo.ListAssignments(ctx, s.db, subID, afterID, limit+1)
	if err != nil {
		return nil, nil, err
	}
	rows, info := pagination.Trim(rows, limit, func(row domain.LicenseAssignment) pagination.Cursor {
		return pagination.Cursor{ID: int64(row.ID)}
	})
	return rows, info, nil
}

func (s *service) FindActiveLicense(ctx context.Context, userID string, at time.Time) (*domain.License, error) {
	assignments, err := s.repo.ListActiveAssignmentsByUser(ctx, s.db, userID, at)
	if err != nil {
		return nil, err
	}

	var best *domain.License
	for _, assignment := range assignments {
		sub, err := s.repo.FindSubscription(ctx, s.db, assignment.OrgSubscriptionID)
		if err != nil {
			return nil, err
		}
		if sub == nil || sub.Status != domain.SubscriptionStatusActive || !sub.EndDate.After(at) {
			continue
		}

		effectiveEnd := sub.EndDate
		if assignment.ExpiresAt != nil && assignment.ExpiresAt.Before(effectiveEnd) {
			effectiveEnd = *assignment.ExpiresAt
		}
		if !effectiveEnd.After(at) {
			continue
		}
		if best == nil || effectiveEnd.After(best.EffectiveEnd) {
			best = &domain.License{
				Assignment:   assignment,
				Subscription: *sub,
				EffectiveEnd: effectiveEnd,
			}
		}
	}
	return best, nil
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, invalid
	}
	return snowflake.ID(parsed), nil
}
