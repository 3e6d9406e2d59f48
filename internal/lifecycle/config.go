package lifecycle

import (
	"sort"
	"time"

	"github.com/rareminds/skillpassport-billing/internal/config"
)

// Config controls scheduler intervals, windows and batch sizes.
type Config struct {
	RunInterval     time.Duration
	BatchSize       int
	JobTimeout      time.Duration
	GracePeriodDays int
	ReminderDays    []int
	RenewWindow     time.Duration
	LockTTL         time.Duration
	EnabledJobs     []string
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		BatchSize:       cfg.SchedulerBatch,
		GracePeriodDays: cfg.GracePeriodDays,
		ReminderDays:    cfg.ReminderDays,
		RenewWindow:     time.Duration(cfg.RenewWindowHours) * time.Hour,
		EnabledJobs:     cfg.SchedulerJobs,
	}
}

func DefaultConfig() Config {
	return Config{
		RunInterval:     time.Hour,
		BatchSize:       100,
		JobTimeout:      30 * time.Second,
		GracePeriodDays: 3,
		ReminderDays:    []int{7, 3, 1},
		RenewWindow:     24 * time.Hour,
		LockTTL:         5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.GracePeriodDays <= 0 {
		c.GracePeriodDays = defaults.GracePeriodDays
	}
	if len(c.ReminderDays) == 0 {
		c.ReminderDays = defaults.ReminderDays
	}
	if c.RenewWindow <= 0 {
		c.RenewWindow = defaults.RenewWindow
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	// Thresholds are matched smallest-first.
	days := append([]int(nil), c.ReminderDays...)
	sort.Ints(days)
	c.ReminderDays = days
	return c
}
