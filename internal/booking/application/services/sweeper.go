package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/pkg/observability"
)

// ErrSweepLocked is returned by SweepOnce when another worker holds the lock.
var ErrSweepLocked = errors.New("sweep already running elsewhere")

// SweepLock keeps concurrent workers from sweeping at the same time.
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// SweeperConfig tunes the background loop.
type SweeperConfig struct {
	Interval time.Duration
}

// SweepReport is the outcome of one pass.
type SweepReport struct {
	At        time.Time
	Cancelled []*domain.Booking
	Elapsed   []*domain.Booking
	PastDue   int
	Failures  int
}

// SweeperStats accumulates over the sweeper's lifetime.
type SweeperStats struct {
	Running   bool
	Runs      uint64
	Cancelled uint64
	Elapsed   uint64
	Failures  uint64
	LastRunAt *time.Time
	LastError string
}

// Sweeper applies the time-driven transitions: expiring unpaid bookings
// close to their deadline and moving lessons whose start passed to
// evaluation. Each booking is re-read and changed in its own unit of work.
type Sweeper struct {
	repo    domain.Repository
	expire  *commands.ExpireBookingHandler
	elapse  *commands.MarkLessonElapsedHandler
	clock   sharedDomain.Clock
	lock    SweepLock
	metrics observability.Metrics
	logger  *zap.Logger
	config  SweeperConfig

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   SweeperStats
}

// NewSweeper creates a sweeper. lock and metrics may be nil.
func NewSweeper(
	repo domain.Repository,
	expire *commands.ExpireBookingHandler,
	elapse *commands.MarkLessonElapsedHandler,
	cfg SweeperConfig,
	clock sharedDomain.Clock,
	lock SweepLock,
	metrics observability.Metrics,
	logger *zap.Logger,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		repo:    repo,
		expire:  expire,
		elapse:  elapse,
		clock:   clock,
		lock:    lock,
		metrics: metrics,
		logger:  logger.Named("sweeper"),
		config:  cfg,
	}
}

// SweepExpired cancels every unpaid booking whose deadline is less than
// 24 hours away and still in the future. It returns the bookings it
// cancelled; a second call at the same instant returns none.
//
// On-demand passes skip the sweep lock: the per-booking re-check and the
// version check make a concurrent double pass a no-op. They still count in
// Stats.
func (s *Sweeper) SweepExpired(ctx context.Context) ([]*domain.Booking, error) {
	return s.SweepExpiredAt(ctx, s.clock.Now())
}

// SweepExpiredAt is SweepExpired evaluated at now instead of the clock.
func (s *Sweeper) SweepExpiredAt(ctx context.Context, now time.Time) ([]*domain.Booking, error) {
	report, err := s.sweepExpired(ctx, now)
	s.record(report, err)
	return report.Cancelled, err
}

func (s *Sweeper) sweepExpired(ctx context.Context, now time.Time) (SweepReport, error) {
	report := SweepReport{At: now}
	candidates, err := s.repo.Find(ctx, domain.Filter{
		Statuses: []domain.Status{domain.StatusAwaitingAcceptance, domain.StatusAwaitingPayment},
	})
	if err != nil {
		return report, err
	}

	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if b.PastDue(now) {
			report.PastDue++
			s.logger.Debug("pending booking past its deadline left untouched",
				zap.String("booking_id", b.ID().String()),
				zap.String("status", b.Status().String()),
			)
			continue
		}
		if !b.ExpiryDue(now) {
			continue
		}

		cancelled, err := s.expire.Handle(ctx, commands.ExpireBookingCommand{BookingID: b.ID(), At: now})
		if err != nil {
			report.Failures++
			s.metrics.Counter(observability.MetricSweepFailures, 1, observability.T("phase", "expire"))
			s.logger.Warn("auto-cancel failed, skipping booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		if cancelled == nil {
			continue
		}
		report.Cancelled = append(report.Cancelled, cancelled)
		s.metrics.Counter(observability.MetricSweepCancelled, 1, observability.T("from", b.Status().String()))
		s.logger.Info("booking auto-cancelled",
			zap.String("booking_id", cancelled.ID().String()),
			zap.String("previous_status", b.Status().String()),
			zap.Time("deadline", deadlineOf(b)),
		)
	}
	return report, nil
}

// AdvanceElapsed moves scheduled lessons whose start has passed to
// awaiting evaluation. A zero now means the clock.
func (s *Sweeper) AdvanceElapsed(ctx context.Context, now time.Time) ([]*domain.Booking, error) {
	if now.IsZero() {
		now = s.clock.Now()
	}
	report := SweepReport{At: now}
	err := s.advanceElapsed(ctx, &report)
	s.record(report, err)
	return report.Elapsed, err
}

func (s *Sweeper) advanceElapsed(ctx context.Context, report *SweepReport) error {
	scheduled, err := s.repo.Find(ctx, domain.Filter{Statuses: []domain.Status{domain.StatusScheduled}})
	if err != nil {
		return err
	}
	for _, b := range scheduled {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !b.LessonElapsed(report.At) {
			continue
		}
		moved, err := s.elapse.Handle(ctx, commands.MarkLessonElapsedCommand{
			BookingID: b.ID(),
			Actor:     domain.SystemActor,
			At:        report.At,
		})
		if err != nil {
			report.Failures++
			s.metrics.Counter(observability.MetricSweepFailures, 1, observability.T("phase", "elapse"))
			s.logger.Warn("could not move lesson to evaluation, skipping booking",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		report.Elapsed = append(report.Elapsed, moved)
		s.metrics.Counter(observability.MetricSweepElapsed, 1)
	}
	return nil
}

// SweepOnce runs both passes under the sweep lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			return SweepReport{}, err
		}
		if !ok {
			return SweepReport{}, ErrSweepLocked
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("releasing sweep lock failed", zap.Error(err))
			}
		}()
	}

	started := time.Now()
	now := s.clock.Now()
	report, err := s.sweepExpired(ctx, now)
	if err == nil {
		err = s.advanceElapsed(ctx, &report)
	}

	s.metrics.Counter(observability.MetricSweepRuns, 1)
	s.metrics.Timing(observability.MetricSweepDuration, time.Since(started))
	s.record(report, err)
	if err != nil {
		return report, err
	}
	if len(report.Cancelled)+len(report.Elapsed)+report.Failures > 0 {
		s.logger.Info("sweep finished",
			zap.Int("cancelled", len(report.Cancelled)),
			zap.Int("elapsed", len(report.Elapsed)),
			zap.Int("past_due", report.PastDue),
			zap.Int("failures", report.Failures),
		)
	}
	return report, nil
}

// Start launches the background loop. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.loop(ctx, s.stop)

	s.logger.Info("sweeper started", zap.Duration("interval", s.config.Interval))
}

// Stop ends the loop and waits for the pass in progress.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	_, err := s.SweepOnce(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, ErrSweepLocked):
		s.logger.Debug("sweep skipped, lock held by another worker")
	default:
		s.logger.Error("sweep failed", zap.Error(err))
	}
}

// Stats returns a snapshot of the counters. Every pass counts: the
// background loop, SweepOnce and the on-demand SweepExpired/AdvanceElapsed.
func (s *Sweeper) Stats() SweeperStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	st := s.stats
	st.Running = running
	return st
}

func (s *Sweeper) record(report SweepReport, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	at := report.At
	s.stats.Runs++
	s.stats.Cancelled += uint64(len(report.Cancelled))
	s.stats.Elapsed += uint64(len(report.Elapsed))
	s.stats.Failures += uint64(report.Failures)
	s.stats.LastRunAt = &at
	s.stats.LastError = ""
	if err != nil {
		s.stats.LastError = err.Error()
	}
}

func deadlineOf(b *domain.Booking) time.Time {
	d, _ := b.Deadline()
	return d
}
