package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rareminds/skillpassport-billing/internal/access/domain"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/config"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	organizationdomain "github.com/rareminds/skillpassport-billing/internal/organization/domain"
	subscriptiondomain "github.com/rareminds/skillpassport-billing/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const expiryWarningDays = 7

// Config holds the evaluation window settings.
type Config struct {
	GracePeriodDays int
}

func ProvideConfig(cfg config.Config) Config {
	return Config{GracePeriodDays: cfg.GracePeriodDays}
}

func (c Config) withDefaults() Config {
	if c.GracePeriodDays <= 0 {
		c.GracePeriodDays = 3
	}
	return c
}

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	EntitlementRepo  entitlementdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	OrganizationSvc  organizationdomain.Service
	Config           Config `optional:"true"`
}

type service struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	entitlementRepo  entitlementdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	organizationSvc  organizationdomain.Service
	cfg              Config
}

func New(p Params) domain.Service {
	return &service{
		db:               p.DB,
		log:              p.Log.Named("access"),
		clock:            p.Clock,
		entitlementRepo:  p.EntitlementRepo,
		subscriptionRepo: p.SubscriptionRepo,
		organizationSvc:  p.OrganizationSvc,
		cfg:              p.Config.withDefaults(),
	}
}

// candidate is one row competing to grant access; the one with the
// latest end date wins.
type candidate struct {
	source    domain.Source
	endDate   time.Time
	paused    bool
	cancelled bool
}

// Evaluate walks the precedence order: an organization license always
// wins, then the freshest individual subscription or entitlement row,
// then grace, then expiry.
func (s *service) Evaluate(ctx context.Context, req domain.Request) (*domain.Decision, error) {
	now := s.clock.Now()
	grace := time.Duration(s.cfg.GracePeriodDays) * 24 * time.Hour
	cutoff := now.Add(-grace)
	featureKey := strings.TrimSpace(req.FeatureKey)

	license, err := s.organizationSvc.FindActiveLicense(ctx, req.UserID, now)
	if err != nil {
		return nil, err
	}
	if license != nil {
		end := license.EffectiveEnd
		return &domain.Decision{
			HasAccess: true,
			Reason:    domain.ReasonActive,
			Source:    domain.SourceOrganization,
			ExpiresAt: &end,
		}, nil
	}

	best, err := s.bestCandidate(ctx, req.UserID, featureKey, cutoff)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return s.noCandidateDecision(ctx, req.UserID, featureKey)
	}

	end := best.endDate

	if best.paused {
		return &domain.Decision{
			HasAccess: true,
			Reason:    domain.ReasonActive,
			Source:    best.source,
			ExpiresAt: &end,
			Warnings: []domain.Warning{{
				Code:    domain.WarningPaused,
				Message: "subscription is paused; access continues until the period ends",
			}},
		}, nil
	}

	if best.cancelled && end.After(now) {
		days := daysUntil(now, end)
		return &domain.Decision{
			HasAccess: true,
			Reason:    domain.ReasonActive,
			Source:    best.source,
			ExpiresAt: &end,
			Warnings: []domain.Warning{{
				Code:            domain.WarningExpiringSoon,
				Message:         fmt.Sprintf("access ends in %d day(s); the purchase was cancelled", days),
				ExpiresAt:       &end,
				DaysUntilExpiry: &days,
			}},
		}, nil
	}

	if !end.Before(now) {
		decision := &domain.Decision{
			HasAccess: true,
			Reason:    domain.ReasonActive,
			Source:    best.source,
			ExpiresAt: &end,
		}
		if days := daysUntil(now, end); days <= expiryWarningDays {
			decision.Warnings = []domain.Warning{{
				Code:            domain.WarningExpiringSoon,
				Message:         fmt.Sprintf("access expires in %d day(s)", days),
				ExpiresAt:       &end,
				DaysUntilExpiry: &days,
			}}
		}
		return decision, nil
	}

	// End date passed; the grace window keeps access alive until
	// end_date + grace, inclusive at the boundary.
	if elapsed := now.Sub(end); elapsed <= grace {
		daysLeft := s.cfg.GracePeriodDays - daysBetween(end, now)
		return &domain.Decision{
			HasAccess:       true,
			Reason:          domain.ReasonGracePeriod,
			Source:          best.source,
			ExpiresAt:       &end,
			DaysLeftInGrace: &daysLeft,
		}, nil
	}

	return &domain.Decision{
		HasAccess: false,
		Reason:    domain.ReasonExpired,
		Source:    domain.SourceNone,
		ExpiresAt: &end,
	}, nil
}

func (s *service) bestCandidate(ctx context.Context, userID, featureKey string, cutoff time.Time) (*candidate, error) {
	var candidates []candidate

	if featureKey == "" {
		subs, err := s.subscriptionRepo.ListLiveByUser(ctx, s.db, userID, cutoff)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			candidates = append(candidates, candidate{
				source:    domain.SourceSubscription,
				endDate:   sub.EndDate,
				paused:    sub.Status == subscriptiondomain.StatusPaused,
				cancelled: sub.Status == subscriptiondomain.StatusCancelled,
			})
		}
	}

	var (
		rows []entitlementdomain.Entitlement
		err  error
	)
	if featureKey == "" {
		rows, err = s.entitlementRepo.ListLiveByUser(ctx, s.db, userID, cutoff)
	} else {
		rows, err = s.entitlementRepo.ListLiveByUserFeature(ctx, s.db, userID, featureKey, cutoff)
	}
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		candidates = append(candidates, candidate{
			source:    domain.SourceEntitlement,
			endDate:   row.EndDate,
			cancelled: row.CancelledAt != nil,
		})
	}

	var best *candidate
	for i := range candidates {
		if best == nil || candidates[i].endDate.After(best.endDate) {
			best = &candidates[i]
		}
	}
	return best, nil
}

func (s *service) noCandidateDecision(ctx context.Context, userID, featureKey string) (*domain.Decision, error) {
	var (
		history int64
		err     error
	)
	if featureKey == "" {
		history, err = s.entitlementRepo.CountByUser(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		if history == 0 {
			history, err = s.subscriptionRepo.CountByUser(ctx, s.db, userID)
			if err != nil {
				return nil, err
			}
		}
	} else {
		history, err = s.entitlementRepo.CountByUserFeature(ctx, s.db, userID, featureKey)
		if err != nil {
			return nil, err
		}
	}

	reason := domain.ReasonNoSubscription
	if history > 0 {
		reason = domain.ReasonExpired
	}
	return &domain.Decision{
		HasAccess: false,
		Reason:    reason,
		Source:    domain.SourceNone,
	}, nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// daysUntil rounds up: a purchase with six hours left still has one day
// of access, not zero.
func daysUntil(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int((to.Sub(from) + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
}
