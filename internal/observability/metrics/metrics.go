package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// Config labels every metric with the service identity.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = "skillpassport-billing"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	return c
}

// Scheduler job error reasons.
const (
	SchedulerJobReasonDeadlineExceeded = "deadline_exceeded"
	SchedulerJobReasonCanceled         = "canceled"
	SchedulerJobReasonNotFound         = "record_not_found"
	SchedulerJobReasonUnknown          = "unknown"
)

// ClassifySchedulerJobReason buckets job errors for the error counter.
func ClassifySchedulerJobReason(err error) string {
	switch {
	case err == nil:
		return SchedulerJobReasonUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return SchedulerJobReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return SchedulerJobReasonCanceled
	case errors.Is(err, gorm.ErrRecordNotFound):
		return SchedulerJobReasonNotFound
	default:
		return SchedulerJobReasonUnknown
	}
}

// SchedulerMetrics exposes the lifecycle scheduler instruments.
type SchedulerMetrics struct {
	cfg Config

	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobTimeouts *prometheus.CounterVec
	jobSkipped  *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	processed   *prometheus.CounterVec
	runLoopLag  *prometheus.HistogramVec
}

var (
	schedulerMu     sync.Mutex
	schedulerShared *SchedulerMetrics
)

// SchedulerWithConfig initializes the shared scheduler metrics once.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if schedulerShared == nil {
		schedulerShared = newSchedulerMetrics(cfg.withDefaults())
	}
	return schedulerShared
}

// Scheduler returns the shared scheduler metrics, initializing with
// defaults when SchedulerWithConfig was never called.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// ResetSchedulerMetricsForTest drops the shared instance so tests can
// re-register against a fresh registry.
func ResetSchedulerMetricsForTest() {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	schedulerShared = nil
}

func newSchedulerMetrics(cfg Config) *SchedulerMetrics {
	factory := promauto.With(prometheus.DefaultRegisterer)
	return &SchedulerMetrics{
		cfg: cfg,
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_scheduler_job_runs_total",
			Help: "Number of lifecycle job executions.",
		}, []string{"service", "env", "job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_scheduler_job_errors_total",
			Help: "Number of lifecycle job errors by reason.",
		}, []string{"service", "env", "job", "reason"}),
		jobTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_scheduler_job_timeouts_total",
			Help: "Number of lifecycle jobs ended by their deadline.",
		}, []string{"service", "env", "job"}),
		jobSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_scheduler_job_skipped_total",
			Help: "Number of lifecycle job runs skipped because another instance holds the lock.",
		}, []string{"service", "env", "job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillpassport_scheduler_job_duration_seconds",
			Help:    "Lifecycle job wall time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "env", "job"}),
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillpassport_scheduler_processed_total",
			Help: "Rows processed per lifecycle job.",
		}, []string{"service", "env", "job"}),
		runLoopLag: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillpassport_scheduler_run_loop_lag_seconds",
			Help:    "How far the scheduler loop lags behind its interval.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"service", "env"}),
	}
}

func (m *SchedulerMetrics) labels(job string) prometheus.Labels {
	return prometheus.Labels{"service": m.cfg.ServiceName, "env": m.cfg.Environment, "job": job}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.With(m.labels(job)).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	m.jobErrors.With(prometheus.Labels{
		"service": m.cfg.ServiceName,
		"env":     m.cfg.Environment,
		"job":     job,
		"reason":  ClassifySchedulerJobReason(err),
	}).Inc()
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	m.jobTimeouts.With(m.labels(job)).Inc()
}

func (m *SchedulerMetrics) IncJobSkipped(job string) {
	m.jobSkipped.With(m.labels(job)).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.With(m.labels(job)).Observe(d.Seconds())
}

func (m *SchedulerMetrics) AddProcessed(job string, n int) {
	if n <= 0 {
		return
	}
	m.processed.With(m.labels(job)).Add(float64(n))
}

func (m *SchedulerMetrics) ObserveRunLoopLag(d time.Duration) {
	m.runLoopLag.With(prometheus.Labels{
		"service": m.cfg.ServiceName,
		"env":     m.cfg.Environment,
	}).Observe(d.Seconds())
}
