package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/city-weather/internal/observability"
	"github.com/i474232898/city-weather/internal/weather"
)

const (
	DefaultInterval    = 10 * time.Minute
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
)

// Refresher is the part of weather.Service the scheduler drives.
type Refresher interface {
	Cities() []weather.WeatherRecord
	Refresh(ctx context.Context, id string) weather.Outcome
}

// TickReport summarizes one auto-refresh pass.
type TickReport struct {
	Refreshed int
	Failed    int
	Discarded int
}

// Scheduler periodically refreshes every tracked city. At most one timer is
// armed at a time; Reschedule replaces it and Stop tears it down.
type Scheduler struct {
	service     Refresher
	interval    time.Duration
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu     sync.Mutex
	active *gocron.Scheduler
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds each city's lookup.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithConcurrency bounds how many cities refresh at once within a tick.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.concurrency = n }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithMetrics records tick counts and durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a new Scheduler. Nothing runs until Start.
func New(service Refresher, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		service:     service,
		interval:    interval,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	return s
}

// Start arms the refresh timer if any city is tracked.
func (s *Scheduler) Start() error {
	return s.Reschedule()
}

// Reschedule cancels any active timer and arms a new one when there is at
// least one tracked city. The first tick fires one full interval from now.
func (s *Scheduler) Reschedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if len(s.service.Cities()) == 0 {
		s.logger.Debug("scheduler: no cities tracked; nothing to schedule")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sched := gocron.NewScheduler(time.UTC)
	sched.SingletonModeAll()

	_, err := sched.Every(s.interval).WaitForSchedule().Do(func() {
		s.tick(ctx)
	})
	if err != nil {
		cancel()
		return err
	}

	sched.StartAsync()
	s.active = sched
	s.cancel = cancel
	s.setActive(1)
	s.logger.Info("scheduler: auto-refresh armed", "interval", s.interval)
	return nil
}

// Stop halts all future ticks. Lookups already in flight are not interrupted
// mid-request, but their results are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Active reports whether a refresh timer is armed.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Scheduler) stopLocked() {
	if s.active == nil {
		return
	}
	// Cancel first so an in-flight tick drops its results.
	s.cancel()
	s.active.Stop()
	s.active = nil
	s.cancel = nil
	s.setActive(0)
	s.logger.Debug("scheduler: auto-refresh stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("scheduler: running auto-refresh")
	report := s.RefreshAll(ctx)
	s.logger.Info("scheduler: completed auto-refresh",
		"refreshed", report.Refreshed, "failed", report.Failed, "discarded", report.Discarded)
}

// RefreshAll refreshes every tracked city independently. One city's failure
// never stops the others.
func (s *Scheduler) RefreshAll(ctx context.Context) TickReport {
	start := time.Now()
	cities := s.service.Cities()

	var (
		mu     sync.Mutex
		report TickReport
	)

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, city := range cities {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			out := s.service.Refresh(cctx, city.ID)

			mu.Lock()
			defer mu.Unlock()
			switch out.Kind {
			case weather.OutcomeUpdated:
				report.Refreshed++
			case weather.OutcomeLookupFailed:
				report.Failed++
				s.logger.Warn("scheduler: refresh failed", "id", city.ID, "city", city.CityName, "error", out.Err)
			default:
				report.Discarded++
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.RefreshTicks.Inc()
		s.metrics.RefreshTickDuration.Observe(time.Since(start).Seconds())
	}
	return report
}

func (s *Scheduler) setActive(v float64) {
	if s.metrics != nil {
		s.metrics.SchedulerActive.Set(v)
	}
}
