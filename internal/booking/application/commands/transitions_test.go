package commands

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

func TestRejectBookingHandler_Handle(t *testing.T) {
	f := newFixture()
	b := requested(t, now.Add(72*time.Hour))
	f.expectCommit(b)

	handler := NewRejectBookingHandler(f.repo, f.outboxRepo, f.uow, sharedDomain.NewFixedClock(now))
	got, err := handler.Handle(f.ctx, RejectBookingCommand{BookingID: b.ID(), InstructorID: b.InstructorID(), Reason: "on holiday"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())
	assert.Equal(t, "on holiday", got.CancelReason())
	f.assertExpectations(t)
}

func TestPayBookingHandler_Handle(t *testing.T) {
	clock := sharedDomain.NewFixedClock(now)

	t.Run("successful payment schedules the lesson", func(t *testing.T) {
		f := newFixture()
		b := requested(t, now.Add(72*time.Hour))
		require.NoError(t, b.Accept(domain.Instructor(b.InstructorID()), nil, now))
		b.ClearDomainEvents()
		f.expectCommit(b)

		handler := NewPayBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		got, err := handler.Handle(f.ctx, PayBookingCommand{
			BookingID: b.ID(),
			Actor:     domain.SystemActor,
			Outcome:   domain.PaymentSucceeded,
			Reference: "ch_42",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusScheduled, got.Status())
		assert.Equal(t, domain.PaymentPaid, got.PaymentStatus())
	})

	t.Run("failed payment leaves the booking alone", func(t *testing.T) {
		f := newFixture()
		b := requested(t, now.Add(72*time.Hour))
		require.NoError(t, b.Accept(domain.Instructor(b.InstructorID()), nil, now))
		f.expectRollback(b)

		handler := NewPayBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		_, err := handler.Handle(f.ctx, PayBookingCommand{
			BookingID: b.ID(),
			Actor:     domain.Student(b.StudentID()),
			Outcome:   domain.PaymentFailed,
		})

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.StatusAwaitingPayment, b.Status())
	})
}

func TestCancelBookingHandler_Handle(t *testing.T) {
	start := now.Add(2 * time.Hour)
	f := newFixture()
	b := scheduled(t, start)
	f.expectCommit(b)

	handler := NewCancelBookingHandler(f.repo, f.outboxRepo, f.uow, sharedDomain.NewFixedClock(now), domain.DefaultRefundPolicy())
	result, err := handler.Handle(f.ctx, CancelBookingCommand{BookingID: b.ID(), Actor: domain.Student(b.StudentID())})

	require.NoError(t, err)
	assert.Equal(t, 50, result.Refund.EligiblePercent)
	assert.True(t, result.Refund.RequiresWarning)
	assert.Equal(t, domain.StatusCancelled, result.Booking.Status())
	assert.Equal(t, domain.PaymentRefunded, result.Booking.PaymentStatus())
	f.assertExpectations(t)
}

func TestRescheduleBookingHandler_Handle(t *testing.T) {
	clock := sharedDomain.NewFixedClock(now)

	t.Run("moves the lesson and quotes the refund", func(t *testing.T) {
		f := newFixture()
		b := scheduled(t, now.Add(72*time.Hour))
		f.expectCommit(b)
		to := slotAt(now.Add(120 * time.Hour))

		handler := NewRescheduleBookingHandler(f.repo, f.outboxRepo, f.uow, clock, domain.DefaultRefundPolicy())
		result, err := handler.Handle(f.ctx, RescheduleBookingCommand{
			BookingID: b.ID(),
			StudentID: b.StudentID(),
			Date:      to.Date,
			Time:      to.Time,
		})

		require.NoError(t, err)
		assert.Equal(t, 100, result.RefundQuote.EligiblePercent)
		got, _ := result.Booking.Slot()
		assert.Equal(t, to, got)
		assert.Equal(t, domain.PaymentPaid, result.Booking.PaymentStatus())
	})

	t.Run("rejects a malformed date before loading", func(t *testing.T) {
		f := newFixture()
		handler := NewRescheduleBookingHandler(f.repo, f.outboxRepo, f.uow, clock, domain.DefaultRefundPolicy())

		_, err := handler.Handle(f.ctx, RescheduleBookingCommand{BookingID: uuid.New(), StudentID: uuid.New(), Date: "tomorrow", Time: "10:00"})

		assert.ErrorIs(t, err, domain.ErrValidation)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestMarkLessonElapsedHandler_Handle(t *testing.T) {
	start := now.Add(-time.Hour)
	f := newFixture()
	b := scheduled(t, start)
	f.expectCommit(b)

	handler := NewMarkLessonElapsedHandler(f.repo, f.outboxRepo, f.uow, sharedDomain.NewFixedClock(now))
	got, err := handler.Handle(f.ctx, MarkLessonElapsedCommand{BookingID: b.ID(), Actor: domain.SystemActor})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingEvaluation, got.Status())
}

func TestEvaluateBookingHandler_Handle(t *testing.T) {
	clock := sharedDomain.NewFixedClock(now)

	t.Run("completes with a rating", func(t *testing.T) {
		f := newFixture()
		b := scheduled(t, now.Add(-2*time.Hour))
		require.NoError(t, b.MarkLessonElapsed(domain.SystemActor, now))
		b.ClearDomainEvents()
		f.expectCommit(b)

		handler := NewEvaluateBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		got, err := handler.Handle(f.ctx, EvaluateBookingCommand{BookingID: b.ID(), StudentID: b.StudentID(), Rating: 4, Review: "great"})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status())
		rating, ok := got.Rating()
		require.True(t, ok)
		assert.Equal(t, 4, rating)
	})

	t.Run("refuses before the lesson elapsed", func(t *testing.T) {
		f := newFixture()
		b := scheduled(t, now.Add(2*time.Hour))
		f.expectRollback(b)

		handler := NewEvaluateBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		_, err := handler.Handle(f.ctx, EvaluateBookingCommand{BookingID: b.ID(), StudentID: b.StudentID(), Rating: 4})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestSkipEvaluationHandler_Handle(t *testing.T) {
	f := newFixture()
	b := scheduled(t, now.Add(-2*time.Hour))
	require.NoError(t, b.MarkLessonElapsed(domain.SystemActor, now))
	b.ClearDomainEvents()
	f.expectCommit(b)

	handler := NewSkipEvaluationHandler(f.repo, f.outboxRepo, f.uow, sharedDomain.NewFixedClock(now))
	got, err := handler.Handle(f.ctx, SkipEvaluationCommand{BookingID: b.ID(), StudentID: b.StudentID()})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status())
}

func TestExpireBookingHandler_Handle(t *testing.T) {
	clock := sharedDomain.NewFixedClock(now)

	t.Run("expires a booking inside the window", func(t *testing.T) {
		f := newFixture()
		b := requested(t, now.Add(23*time.Hour))
		f.expectCommit(b)

		handler := NewExpireBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		got, err := handler.Handle(f.ctx, ExpireBookingCommand{BookingID: b.ID()})

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.AutoCanceled())
		assert.Equal(t, domain.PaymentPending, b.PaymentStatus())
	})

	t.Run("honors the sweep instant", func(t *testing.T) {
		f := newFixture()
		b := requested(t, now.Add(30*time.Hour))
		f.expectCommit(b)

		handler := NewExpireBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		got, err := handler.Handle(f.ctx, ExpireBookingCommand{BookingID: b.ID(), At: now.Add(7 * time.Hour)})

		require.NoError(t, err)
		require.NotNil(t, got)
		at, _ := got.CanceledAt()
		assert.Equal(t, now.Add(7*time.Hour).UTC(), at)
	})

	t.Run("skips a booking someone else already moved", func(t *testing.T) {
		f := newFixture()
		b := scheduled(t, now.Add(23*time.Hour))
		f.expectRollback(b)

		handler := NewExpireBookingHandler(f.repo, f.outboxRepo, f.uow, clock)
		got, err := handler.Handle(f.ctx, ExpireBookingCommand{BookingID: b.ID()})

		require.NoError(t, err)
		assert.Nil(t, got)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
