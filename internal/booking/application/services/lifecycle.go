// Package services composes the booking handlers into the operations the
// adapters call, and runs the time-driven sweeper.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
	"github.com/fsgregorio/driverapp-sub000/pkg/observability"
)

// Handlers groups everything LifecycleService delegates to.
type Handlers struct {
	Create     *commands.CreateBookingHandler
	Accept     *commands.AcceptBookingHandler
	Reject     *commands.RejectBookingHandler
	Pay        *commands.PayBookingHandler
	Cancel     *commands.CancelBookingHandler
	Reschedule *commands.RescheduleBookingHandler
	Elapse     *commands.MarkLessonElapsedHandler
	Evaluate   *commands.EvaluateBookingHandler
	Skip       *commands.SkipEvaluationHandler
	Expire     *commands.ExpireBookingHandler

	Get       *queries.GetBookingHandler
	List      *queries.ListBookingsHandler
	Dashboard *queries.DashboardHandler
	Quote     *queries.QuoteRefundHandler
}

// HandlerDeps is what every handler is built from.
type HandlerDeps struct {
	Repo      domain.Repository
	Outbox    outbox.Repository
	UoW       sharedApplication.UnitOfWork
	Clock     sharedDomain.Clock
	Location  *time.Location
	Policy    domain.RefundPolicy
	Dashboard queries.DashboardConfig
}

// NewHandlers wires the command and query handlers over one repository.
func NewHandlers(d HandlerDeps) Handlers {
	if d.Clock == nil {
		d.Clock = sharedDomain.SystemClock{}
	}
	return Handlers{
		Create:     commands.NewCreateBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock, d.Location),
		Accept:     commands.NewAcceptBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Reject:     commands.NewRejectBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Pay:        commands.NewPayBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Cancel:     commands.NewCancelBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock, d.Policy),
		Reschedule: commands.NewRescheduleBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock, d.Policy),
		Elapse:     commands.NewMarkLessonElapsedHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Evaluate:   commands.NewEvaluateBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Skip:       commands.NewSkipEvaluationHandler(d.Repo, d.Outbox, d.UoW, d.Clock),
		Expire:     commands.NewExpireBookingHandler(d.Repo, d.Outbox, d.UoW, d.Clock),

		Get:       queries.NewGetBookingHandler(d.Repo, d.Clock),
		List:      queries.NewListBookingsHandler(d.Repo, d.Clock),
		Dashboard: queries.NewDashboardHandler(d.Repo, d.Clock, d.Dashboard),
		Quote:     queries.NewQuoteRefundHandler(d.Repo, d.Clock, d.Policy),
	}
}

// LifecycleOptions tunes the service.
type LifecycleOptions struct {
	// SweepOnLoad runs the expiry sweep before a dashboard is built.
	SweepOnLoad bool
}

// LifecycleService is the booking lifecycle as seen by the HTTP and CLI adapters.
type LifecycleService struct {
	h       Handlers
	sweeper *Sweeper
	opts    LifecycleOptions
	metrics observability.Metrics
	logger  *zap.Logger
}

// NewLifecycleService creates a LifecycleService.
func NewLifecycleService(h Handlers, sweeper *Sweeper, opts LifecycleOptions, metrics observability.Metrics, logger *zap.Logger) *LifecycleService {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{h: h, sweeper: sweeper, opts: opts, metrics: metrics, logger: logger.Named("lifecycle")}
}

// observe counts the transition outcome and logs rejections at debug.
func (s *LifecycleService) observe(action domain.Action, id uuid.UUID, err error) {
	if err == nil {
		s.metrics.Counter(observability.MetricBookingTransitions, 1, observability.T("action", string(action)))
		return
	}
	s.metrics.Counter(observability.MetricBookingRejected, 1,
		observability.T("action", string(action)),
		observability.T("reason", errorKind(err)),
	)
	s.logger.Debug("transition refused",
		zap.String("action", string(action)),
		zap.String("booking_id", id.String()),
		zap.Error(err),
	)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, domain.ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	}
	return "internal"
}

// CreateBooking files a lesson request.
func (s *LifecycleService) CreateBooking(ctx context.Context, cmd commands.CreateBookingCommand) (*domain.Booking, error) {
	b, err := s.h.Create.Handle(ctx, cmd)
	id := uuid.Nil
	if b != nil {
		id = b.ID()
	}
	s.observe("create", id, err)
	return b, err
}

// AcceptBooking confirms a request.
func (s *LifecycleService) AcceptBooking(ctx context.Context, cmd commands.AcceptBookingCommand) (*domain.Booking, error) {
	b, err := s.h.Accept.Handle(ctx, cmd)
	s.observe(domain.ActionAccept, cmd.BookingID, err)
	return b, err
}

// RejectBooking declines a request.
func (s *LifecycleService) RejectBooking(ctx context.Context, cmd commands.RejectBookingCommand) (*domain.Booking, error) {
	b, err := s.h.Reject.Handle(ctx, cmd)
	s.observe(domain.ActionReject, cmd.BookingID, err)
	return b, err
}

// PayBooking applies a payment report.
func (s *LifecycleService) PayBooking(ctx context.Context, cmd commands.PayBookingCommand) (*domain.Booking, error) {
	b, err := s.h.Pay.Handle(ctx, cmd)
	s.observe(domain.ActionPay, cmd.BookingID, err)
	return b, err
}

// CancelBooking cancels and returns the refund that was applied.
func (s *LifecycleService) CancelBooking(ctx context.Context, cmd commands.CancelBookingCommand) (commands.CancelBookingResult, error) {
	res, err := s.h.Cancel.Handle(ctx, cmd)
	s.observe(domain.ActionCancel, cmd.BookingID, err)
	return res, err
}

// RescheduleBooking moves a lesson and returns the refund quote.
func (s *LifecycleService) RescheduleBooking(ctx context.Context, cmd commands.RescheduleBookingCommand) (commands.RescheduleBookingResult, error) {
	res, err := s.h.Reschedule.Handle(ctx, cmd)
	s.observe(domain.ActionReschedule, cmd.BookingID, err)
	return res, err
}

// MarkLessonElapsed moves a lesson to evaluation.
func (s *LifecycleService) MarkLessonElapsed(ctx context.Context, cmd commands.MarkLessonElapsedCommand) (*domain.Booking, error) {
	b, err := s.h.Elapse.Handle(ctx, cmd)
	s.observe(domain.ActionElapse, cmd.BookingID, err)
	return b, err
}

// EvaluateBooking rates a lesson.
func (s *LifecycleService) EvaluateBooking(ctx context.Context, cmd commands.EvaluateBookingCommand) (*domain.Booking, error) {
	b, err := s.h.Evaluate.Handle(ctx, cmd)
	s.observe(domain.ActionEvaluate, cmd.BookingID, err)
	return b, err
}

// SkipEvaluation completes a lesson without a rating.
func (s *LifecycleService) SkipEvaluation(ctx context.Context, cmd commands.SkipEvaluationCommand) (*domain.Booking, error) {
	b, err := s.h.Skip.Handle(ctx, cmd)
	s.observe(domain.ActionSkipEvaluation, cmd.BookingID, err)
	return b, err
}

// SweepExpired runs the expiry sweep now and returns what it cancelled.
func (s *LifecycleService) SweepExpired(ctx context.Context) ([]*domain.Booking, error) {
	return s.sweeper.SweepExpired(ctx)
}

// Sweep runs both time-driven passes under the sweep lock.
func (s *LifecycleService) Sweep(ctx context.Context) (SweepReport, error) {
	return s.sweeper.SweepOnce(ctx)
}

// QuoteRefund prices a cancellation without applying it.
func (s *LifecycleService) QuoteRefund(ctx context.Context, q queries.QuoteRefundQuery) (domain.Refund, error) {
	return s.h.Quote.Handle(ctx, q)
}

// GetBooking reads one booking.
func (s *LifecycleService) GetBooking(ctx context.Context, q queries.GetBookingQuery) (*queries.BookingDTO, error) {
	return s.h.Get.Handle(ctx, q)
}

// ListBookings lists the actor's bookings.
func (s *LifecycleService) ListBookings(ctx context.Context, q queries.ListBookingsQuery) ([]queries.BookingDTO, error) {
	return s.h.List.Handle(ctx, q)
}

// StudentDashboard builds the student's home screen.
func (s *LifecycleService) StudentDashboard(ctx context.Context, studentID uuid.UUID) (*queries.StudentDashboard, error) {
	s.sweepOnLoad(ctx)
	return s.h.Dashboard.Student(ctx, studentID)
}

// InstructorDashboard builds the instructor's home screen.
func (s *LifecycleService) InstructorDashboard(ctx context.Context, instructorID uuid.UUID) (*queries.InstructorDashboard, error) {
	s.sweepOnLoad(ctx)
	return s.h.Dashboard.Instructor(ctx, instructorID)
}

// AdminMetrics computes platform metrics for an admin.
func (s *LifecycleService) AdminMetrics(ctx context.Context, actor domain.Actor) (*queries.AdminMetrics, error) {
	return s.h.Dashboard.Admin(ctx, actor)
}

// sweepOnLoad never fails the read; a failed sweep is retried by the worker.
func (s *LifecycleService) sweepOnLoad(ctx context.Context) {
	if !s.opts.SweepOnLoad || s.sweeper == nil {
		return
	}
	if _, err := s.sweeper.SweepExpired(ctx); err != nil {
		s.logger.Warn("sweep on load failed", zap.Error(err))
	}
}
