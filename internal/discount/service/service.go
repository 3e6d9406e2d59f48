package service

import (
	"context"
	"strings"

	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/discount/domain"
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
		log:   p.Log.Named("discount"),
		repo:  p.Repo,
		clock: p.Clock,
	}
}

// Resolve applies a code to a base price. Codes that are unknown,
// inactive, outside their validity window, or exhausted resolve to a
// zero discount without error.
func (s *service) Resolve(ctx context.Context, code string, basePrice int64) (domain.Resolution, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return domain.Resolution{}, nil
	}

	row, err := s.repo.FindByCode(ctx, s.db, normalized)
	if err != nil {
		return domain.Resolution{}, err
	}
	if row == nil || !s.usable(row) {
		s.log.Debug("discount code not applied", zap.String("code", normalized))
		return domain.Resolution{Code: normalized}, nil
	}

	amount := s.amount(row, basePrice)
	return domain.Resolution{
		Code:    normalized,
		Amount:  amount,
		Applied: true,
	}, nil
}

func (s *service) IncrementUsage(ctx context.Context, db *gorm.DB, code string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil
	}
	return s.repo.IncrementUsage(ctx, db, normalized)
}

func (s *service) usable(row *domain.DiscountCode) bool {
	now := s.clock.Now()
	if !row.Active {
		return false
	}
	if row.ValidFrom != nil && now.Before(*row.ValidFrom) {
		return false
	}
	if row.ValidUntil != nil && now.After(*row.ValidUntil) {
		return false
	}
	if row.MaxUses != nil && row.CurrentUses >= *row.MaxUses {
		return false
	}
	return true
}

func (s *service) amount(row *domain.DiscountCode, basePrice int64) int64 {
	var amount int64
	switch row.DiscountType {
	case domain.DiscountTypePercentage:
		amount = basePrice * row.DiscountValue / 100
	case domain.DiscountTypeFlat:
		amount = row.DiscountValue
	default:
		return 0
	}
	if row.MaxDiscountAmount != nil && amount > *row.MaxDiscountAmount {
		amount = *row.MaxDiscountAmount
	}
	if amount > basePrice {
		amount = basePrice
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}
