package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("entitlement"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *service) Cancel(ctx context.Context, req domain.CancelRequest) (*domain.CancelResponse, error) {
	row, err := s.findOwned(ctx, req.UserID, req.EntitlementID)
	if err != nil {
		return nil, err
	}
	if row.CancelledAt != nil {
		return nil, domain.ErrAlreadyCancelled
	}
	if row.Status == domain.StatusExpired {
		return nil, domain.ErrEntitlementExpired
	}

	now := s.clock.Now()
	row.CancelledAt = &now
	row.AutoRenew = false
	row.UpdatedAt = now
	if err := s.repo.Save(ctx, s.db, row); err != nil {
		return nil, err
	}

	s.log.Info("entitlement cancelled",
		zap.String("user_id", row.UserID),
		zap.String("feature_key", row.FeatureKey),
		zap.Time("access_until", row.EndDate),
	)
	return &domain.CancelResponse{
		Entitlement: row,
		AccessUntil: row.EndDate,
	}, nil
}

func (s *service) SetAutoRenew(ctx context.Context, req domain.AutoRenewRequest) (*domain.Entitlement, error) {
	row, err := s.findOwned(ctx, req.UserID, req.EntitlementID)
	if err != nil {
		return nil, err
	}
	if row.Status == domain.StatusExpired {
		return nil, domain.ErrEntitlementExpired
	}
	if req.Enabled && row.CancelledAt != nil {
		return nil, domain.ErrAlreadyCancelled
	}

	if row.AutoRenew != req.Enabled {
		row.AutoRenew = req.Enabled
		row.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, s.db, row); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (s *service) findOwned(ctx context.Context, userID, rawID string) (*domain.Entitlement, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || parsed <= 0 {
		return nil, domain.ErrInvalidEntitlementID
	}
	row, err := s.repo.FindByID(ctx, s.db, snowflake.ID(parsed))
	if err != nil {
		return nil, err
	}
	if row == nil || row.UserID != userID {
		return nil, domain.ErrEntitlementNotFound
	}
	return row, nil
}
