package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/rareminds/skillpassport-billing/internal/catalog/domain"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	notificationdomain "github.com/rareminds/skillpassport-billing/internal/notification/domain"
	obsmetrics "github.com/rareminds/skillpassport-billing/internal/observability/metrics"
	paymentdomain "github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"github.com/rareminds/skillpassport-billing/internal/redislock"
	subscriptiondomain "github.com/rareminds/skillpassport-billing/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	Gateway          paymentdomain.Gateway
	Notifier         notificationdomain.Notifier
	CatalogSvc       catalogdomain.Service
	EntitlementRepo  entitlementdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	Locker           *redislock.Locker `optional:"true"`
	Config           Config            `optional:"true"`
}

// Scheduler drives the entitlement lifecycle: expiry, the grace
// transition, renewal reminders and auto-renewal. Every pass is
// idempotent, so overlapping or repeated runs are harmless.
type Scheduler struct {
	db               *gorm.DB
	log              *zap.Logger
	cfg              Config
	clock            clock.Clock
	gateway          paymentdomain.Gateway
	notifier         notificationdomain.Notifier
	catalogSvc       catalogdomain.Service
	entitlementRepo  entitlementdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
	locker           *redislock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Gateway == nil || p.Notifier == nil || p.CatalogSvc == nil || p.EntitlementRepo == nil || p.SubscriptionRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:               p.DB,
		log:              p.Log.Named("lifecycle").With(zap.String("component", "scheduler")),
		cfg:              p.Config.withDefaults(),
		clock:            p.Clock,
		gateway:          p.Gateway,
		notifier:         p.Notifier,
		catalogSvc:       p.CatalogSvc,
		entitlementRepo:  p.EntitlementRepo,
		subscriptionRepo: p.SubscriptionRepo,
		locker:           p.Locker,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()

	if s.locker != nil {
		key := "lifecycle:" + name
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("lock acquire failed, running unlocked",
				zap.String("job", name),
				zap.Error(err),
			)
		} else if !ok {
			schedMetrics.IncJobSkipped(name)
			s.log.Debug("job locked by another instance", zap.String("job", name))
			return nil
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("lock release failed", zap.String("job", name), zap.Error(err))
				}
			}()
		}
	}

	schedMetrics.IncJobRun(name)
	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"expire_entitlements", s.ExpireJob},
		{"entitlement_grace", s.GraceTransitionJob},
		{"renewal_reminders", s.RenewalRemindersJob},
		{"auto_renew", s.AutoRenewJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		run := job.Run
		name := job.Name
		err = errors.Join(err, s.runJob(parent, name, s.cfg.JobTimeout, run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// If EnabledJobs is empty, all jobs are enabled (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) gracePeriod() time.Duration {
	return time.Duration(s.cfg.GracePeriodDays) * 24 * time.Hour
}
