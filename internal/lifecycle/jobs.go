package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	entitlementdomain "github.com/rareminds/skillpassport-billing/internal/entitlement/domain"
	notificationdomain "github.com/rareminds/skillpassport-billing/internal/notification/domain"
	obsmetrics "github.com/rareminds/skillpassport-billing/internal/observability/metrics"
	paymentdomain "github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"go.uber.org/zap"
)

const paisePerRupee = 100

// ExpireJob moves entitlements and subscriptions whose end date fell
// out of the grace window to expired. The cutoff check makes the job
// idempotent: rows already expired never match again.
func (s *Scheduler) ExpireJob(ctx context.Context) error {
	now := s.clock.Now()
	cutoff := now.Add(-s.gracePeriod())
	schedMetrics := obsmetrics.Scheduler()

	for {
		rows, err := s.entitlementRepo.ListExpirable(ctx, s.db, cutoff, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list expirable entitlements: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		n, err := s.entitlementRepo.MarkExpired(ctx, s.db, ids, now)
		if err != nil {
			return fmt.Errorf("mark entitlements expired: %w", err)
		}
		schedMetrics.AddProcessed("expire_entitlements", int(n))
		s.log.Info("entitlements expired", zap.Int64("count", n))
		if len(rows) < s.cfg.BatchSize {
			break
		}
	}

	for {
		rows, err := s.subscriptionRepo.ListExpirable(ctx, s.db, cutoff, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list expirable subscriptions: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		n, err := s.subscriptionRepo.MarkExpired(ctx, s.db, ids, now)
		if err != nil {
			return fmt.Errorf("mark subscriptions expired: %w", err)
		}
		schedMetrics.AddProcessed("expire_entitlements", int(n))
		s.log.Info("subscriptions expired", zap.Int64("count", n))
		if len(rows) < s.cfg.BatchSize {
			break
		}
	}

	return nil
}

// GraceTransitionJob flips active entitlements whose end date has
// passed but is still inside the grace window to grace_period.
func (s *Scheduler) GraceTransitionJob(ctx context.Context) error {
	now := s.clock.Now()
	cutoff := now.Add(-s.gracePeriod())
	schedMetrics := obsmetrics.Scheduler()

	for {
		rows, err := s.entitlementRepo.ListGraceCandidates(ctx, s.db, now, cutoff, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list grace candidates: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		n, err := s.entitlementRepo.MarkGracePeriod(ctx, s.db, ids, now)
		if err != nil {
			return fmt.Errorf("mark grace period: %w", err)
		}
		schedMetrics.AddProcessed("entitlement_grace", int(n))
		s.log.Info("entitlements moved to grace period", zap.Int64("count", n))
		if len(rows) < s.cfg.BatchSize {
			return nil
		}
	}
}

// RenewalRemindersJob notifies owners of non-renewing entitlements
// approaching their end date. Each threshold fires at most once per
// period, tracked by the smallest threshold already sent.
func (s *Scheduler) RenewalRemindersJob(ctx context.Context) error {
	now := s.clock.Now()
	horizon := now.Add(time.Duration(s.cfg.ReminderDays[len(s.cfg.ReminderDays)-1]) * 24 * time.Hour)
	schedMetrics := obsmetrics.Scheduler()

	rows, err := s.entitlementRepo.ListReminderCandidates(ctx, s.db, now, horizon, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list reminder candidates: %w", err)
	}

	var errs error
	var sent int64
	for i := range rows {
		row := &rows[i]
		daysLeft := daysUntil(now, row.EndDate)
		threshold, ok := s.reminderThreshold(daysLeft)
		if !ok {
			continue
		}
		if row.LastReminderDays != nil && *row.LastReminderDays <= threshold {
			continue
		}

		err := s.notifier.Send(ctx, notificationdomain.Message{
			UserID:   row.UserID,
			Template: notificationdomain.TemplateRenewalReminder,
			Data: map[string]any{
				"feature_key": row.FeatureKey,
				"end_date":    row.EndDate,
				"days_left":   daysLeft,
			},
		})
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("remind user %s: %w", row.UserID, err))
			continue
		}

		marker := threshold
		row.LastReminderDays = &marker
		if err := s.entitlementRepo.Save(ctx, s.db, row); err != nil {
			errs = errors.Join(errs, fmt.Errorf("save reminder marker for %s: %w", row.ID, err))
			continue
		}
		sent++
	}

	schedMetrics.AddProcessed("renewal_reminders", int(sent))
	if sent > 0 {
		s.log.Info("renewal reminders sent", zap.Int64("count", sent))
	}
	return errs
}

// reminderThreshold returns the smallest configured threshold covering
// daysLeft. ReminderDays is sorted ascending by withDefaults.
func (s *Scheduler) reminderThreshold(daysLeft int) (int, bool) {
	for _, d := range s.cfg.ReminderDays {
		if daysLeft <= d {
			return d, true
		}
	}
	return 0, false
}

// AutoRenewJob charges entitlements with auto-renew on that end within
// the renewal window, extends them one billing period and clears the
// reminder marker. A failed charge is logged and left alone, so the
// row degrades through grace to expiry like any other.
func (s *Scheduler) AutoRenewJob(ctx context.Context) error {
	now := s.clock.Now()
	windowEnd := now.Add(s.cfg.RenewWindow)
	schedMetrics := obsmetrics.Scheduler()

	rows, err := s.entitlementRepo.ListAutoRenewDue(ctx, s.db, now, windowEnd, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list auto-renew due: %w", err)
	}

	var errs error
	var renewed int64
	for i := range rows {
		row := &rows[i]
		if err := s.renewOne(ctx, row); err != nil {
			if errors.Is(err, paymentdomain.ErrChargeFailed) || errors.Is(err, paymentdomain.ErrGatewayUnavailable) {
				s.log.Warn("auto-renew charge failed",
					zap.String("entitlement_id", row.ID.String()),
					zap.String("user_id", row.UserID),
					zap.Error(err),
				)
				continue
			}
			errs = errors.Join(errs, fmt.Errorf("renew %s: %w", row.ID, err))
			continue
		}
		renewed++
	}

	schedMetrics.AddProcessed("auto_renew", int(renewed))
	if renewed > 0 {
		s.log.Info("entitlements auto-renewed", zap.Int64("count", renewed))
	}
	return errs
}

func (s *Scheduler) renewOne(ctx context.Context, row *entitlementdomain.Entitlement) error {
	price := s.renewalPrice(ctx, row)

	charge, err := s.gateway.ChargeReference(ctx, paymentdomain.ChargeRequest{
		AmountPaise: price * paisePerRupee,
		Currency:    "INR",
		Reference:   row.PaymentRef,
		Description: "renewal " + row.FeatureKey,
	})
	if err != nil {
		return err
	}

	row.EndDate = row.BillingPeriod.NextEnd(row.EndDate)
	row.PricePaid = price
	row.PaymentID = charge.PaymentID
	row.LastReminderDays = nil
	if err := s.entitlementRepo.Save(ctx, s.db, row); err != nil {
		return fmt.Errorf("save renewed entitlement: %w", err)
	}

	if err := s.notifier.Send(ctx, notificationdomain.Message{
		UserID:   row.UserID,
		Template: notificationdomain.TemplateAutoRenewSuccess,
		Data: map[string]any{
			"feature_key":  row.FeatureKey,
			"new_end_date": row.EndDate,
			"amount":       price,
		},
	}); err != nil {
		s.log.Warn("auto-renew notification failed",
			zap.String("user_id", row.UserID),
			zap.Error(err),
		)
	}
	return nil
}

// renewalPrice charges the current catalog price, falling back to the
// price last paid when the item left the catalog.
func (s *Scheduler) renewalPrice(ctx context.Context, row *entitlementdomain.Entitlement) int64 {
	switch row.SourceType {
	case entitlementdomain.SourceAddOn:
		price, err := s.catalogSvc.ResolveAddOnPrice(ctx, row.FeatureKey, row.BillingPeriod)
		if err == nil {
			return price
		}
	case entitlementdomain.SourceBundle:
		if row.BundleID != nil {
			bundlePrice, err := s.catalogSvc.ResolveBundlePrice(ctx, strconv.FormatInt(int64(*row.BundleID), 10), row.BillingPeriod)
			if err == nil && len(bundlePrice.FeatureKeys) > 0 {
				return bundlePrice.Price / int64(len(bundlePrice.FeatureKeys))
			}
		}
	}
	return row.PricePaid
}

func daysUntil(now, end time.Time) int {
	d := int(end.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
