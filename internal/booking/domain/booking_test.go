package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking_WithSlot(t *testing.T) {
	s := MustSlot("2026-02-10", "11:00")
	studentID, instructorID := uuid.New(), uuid.New()

	b, err := NewBooking(NewBookingParams{
		StudentID:    studentID,
		InstructorID: instructorID,
		Slot:         &s,
		Price:        decimal.NewFromInt(120),
		ClassTypes:   []string{"parking", "road"},
		PickupType:   PickupAtHome,
		Location:     saoPaulo,
	}, base)

	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingAcceptance, b.Status())
	assert.Equal(t, PaymentPending, b.PaymentStatus())
	assert.Equal(t, studentID, b.StudentID())
	assert.Equal(t, DefaultDurationMinutes, b.DurationMinutes())
	assert.Equal(t, []ClassType{ClassParking, ClassRoad}, b.ClassTypes())
	assert.True(t, b.IsNew())

	got, ok := b.Slot()
	require.True(t, ok)
	assert.Equal(t, s, got)

	require.Len(t, b.DomainEvents(), 1)
	assert.Equal(t, RoutingKeyRequested, b.DomainEvents()[0].RoutingKey())
}

func TestNewBooking_Validation(t *testing.T) {
	s := MustSlot("2026-02-10", "11:00")
	valid := func() NewBookingParams {
		return NewBookingParams{
			StudentID:    uuid.New(),
			InstructorID: uuid.New(),
			Slot:         &s,
			Price:        decimal.NewFromInt(100),
			Location:     saoPaulo,
		}
	}

	tests := []struct {
		name   string
		mutate func(p *NewBookingParams)
	}{
		{"no slot or options", func(p *NewBookingParams) { p.Slot = nil }},
		{"slot and options", func(p *NewBookingParams) {
			p.Options = []SlotOption{{Date: "2026-02-11", Times: []string{"10:00"}}}
		}},
		{"zero price", func(p *NewBookingParams) { p.Price = decimal.Zero }},
		{"negative price", func(p *NewBookingParams) { p.Price = decimal.NewFromInt(-5) }},
		{"missing student", func(p *NewBookingParams) { p.StudentID = uuid.Nil }},
		{"self booking", func(p *NewBookingParams) { p.InstructorID = p.StudentID }},
		{"bad pickup", func(p *NewBookingParams) { p.PickupType = "teleport" }},
		{"bad slot", func(p *NewBookingParams) { p.Slot = &Slot{Date: "2026-13-01", Time: "10:00"} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(&p)
			_, err := NewBooking(p, base)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBooking_AcceptChoosesAmongOptions(t *testing.T) {
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Options:      []SlotOption{{Date: "2026-02-10", Times: []string{"09:00", "11:00"}}},
		Price:        decimal.NewFromInt(100),
		Location:     saoPaulo,
	}, base)
	require.NoError(t, err)

	_, ok := b.Start()
	assert.False(t, ok)

	chosen := MustSlot("2026-02-10", "11:00")
	require.NoError(t, b.Accept(instructor(b), &chosen, base))

	snap := b.Snapshot()
	assert.Equal(t, "2026-02-10", snap.ScheduledDate)
	assert.Equal(t, "11:00", snap.ScheduledTime)
	assert.Empty(t, snap.AvailableOptions)
	assert.Equal(t, StatusAwaitingPayment, b.Status())
}

func TestBooking_AcceptNormalizesChosenSlot(t *testing.T) {
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Options:      []SlotOption{{Date: "2026-02-10", Times: []string{"09:00", "11:00"}}},
		Price:        decimal.NewFromInt(100),
		Location:     saoPaulo,
	}, base)
	require.NoError(t, err)

	garbled := Slot{Date: "2026-02-10", Time: "9h"}
	assert.ErrorIs(t, b.Accept(instructor(b), &garbled, base), ErrValidation)

	loose := Slot{Date: " 2026-02-10", Time: "9:00"}
	require.NoError(t, b.Accept(instructor(b), &loose, base))
	snap := b.Snapshot()
	assert.Equal(t, "2026-02-10", snap.ScheduledDate)
	assert.Equal(t, "09:00", snap.ScheduledTime)
}

func TestBooking_AcceptRejectsUnofferedSlot(t *testing.T) {
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Options:      []SlotOption{{Date: "2026-02-10", Times: []string{"09:00"}}},
		Price:        decimal.NewFromInt(100),
		Location:     saoPaulo,
	}, base)
	require.NoError(t, err)

	other := MustSlot("2026-02-10", "10:00")
	assert.ErrorIs(t, b.Accept(instructor(b), &other, base), ErrValidation)
	assert.ErrorIs(t, b.Accept(instructor(b), nil, base), ErrValidation)
	assert.Equal(t, StatusAwaitingAcceptance, b.Status())
}

func TestBooking_AcceptWithFixedSlot(t *testing.T) {
	b := requestAt(t, base.Add(72*time.Hour))

	other := slotAt(base.Add(96 * time.Hour))
	assert.ErrorIs(t, b.Accept(instructor(b), &other, base), ErrValidation)

	require.NoError(t, b.Accept(instructor(b), nil, base))
	assert.Equal(t, StatusAwaitingPayment, b.Status())
}

func TestBooking_OnlyPartiesMayAct(t *testing.T) {
	b := requestAt(t, base.Add(72*time.Hour))

	err := b.Accept(Instructor(uuid.New()), nil, base)
	assert.ErrorIs(t, err, ErrForbidden)

	err = b.Accept(Actor{ID: uuid.New(), Role: RoleAdmin}, nil, base)
	assert.ErrorIs(t, err, ErrForbidden)

	err = b.Accept(student(b), nil, base)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_Reject(t *testing.T) {
	b := requestAt(t, base.Add(72*time.Hour))

	require.NoError(t, b.Reject(instructor(b), "fully booked", base))
	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, RoleInstructor, b.CanceledBy())
	assert.Equal(t, "fully booked", b.CancelReason())
	assert.False(t, b.AutoCanceled())
	at, ok := b.CanceledAt()
	require.True(t, ok)
	assert.Equal(t, base.UTC(), at)
}

func TestBooking_PayRequiresSuccess(t *testing.T) {
	b := acceptedAt(t, base.Add(72*time.Hour))

	err := b.Pay(student(b), PaymentReport{Outcome: PaymentFailed}, base)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatusAwaitingPayment, b.Status())
	assert.Equal(t, PaymentPending, b.PaymentStatus())

	require.NoError(t, b.Pay(SystemActor, PaymentReport{Outcome: PaymentSucceeded, Reference: "ch_1"}, base))
	assert.Equal(t, StatusScheduled, b.Status())
	assert.Equal(t, PaymentPaid, b.PaymentStatus())
	assert.Equal(t, "ch_1", b.PaymentReference())
}

func TestBooking_CancelPaidLessonTwoHoursBefore(t *testing.T) {
	start := base.Add(72 * time.Hour)
	b := paidAt(t, start)

	refund, err := b.Cancel(student(b), "sick", DefaultRefundPolicy(), start.Add(-2*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 50, refund.EligiblePercent)
	assert.True(t, refund.RequiresWarning)
	assert.True(t, decimal.NewFromInt(50).Equal(refund.Amount))
	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, PaymentRefunded, b.PaymentStatus())
	assert.Equal(t, RoleStudent, b.CanceledBy())
	assert.Equal(t, refund, b.Refund())
}

func TestBooking_CancelUnpaidKeepsPaymentStatus(t *testing.T) {
	b := acceptedAt(t, base.Add(72*time.Hour))

	refund, err := b.Cancel(instructor(b), "", DefaultRefundPolicy(), base)

	require.NoError(t, err)
	assert.True(t, refund.IsZero())
	assert.Equal(t, PaymentPending, b.PaymentStatus())
	assert.Equal(t, RoleInstructor, b.CanceledBy())
}

func TestBooking_CancelTwiceIsInvalid(t *testing.T) {
	b := requestAt(t, base.Add(72*time.Hour))
	_, err := b.Cancel(student(b), "", DefaultRefundPolicy(), base)
	require.NoError(t, err)

	_, err = b.Cancel(student(b), "", DefaultRefundPolicy(), base)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_ExpiryBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Duration
		due      bool
		pastDue  bool
	}{
		{"23h59m away", 23*time.Hour + 59*time.Minute, true, false},
		{"1m away", time.Minute, true, false},
		{"exactly 24h away", 24 * time.Hour, false, false},
		{"24h01m away", 24*time.Hour + time.Minute, false, false},
		{"1h past", -time.Hour, false, true},
		{"at the deadline", 0, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := acceptedAt(t, base.Add(tc.deadline))
			assert.Equal(t, tc.due, b.ExpiryDue(base))
			assert.Equal(t, tc.pastDue, b.PastDue(base))

			err := b.Expire(base)
			if tc.due {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, b.Status())
				assert.True(t, b.AutoCanceled())
				assert.Equal(t, PaymentPending, b.PaymentStatus())
				assert.Equal(t, RoleSystem, b.CanceledBy())
			} else {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, StatusAwaitingPayment, b.Status())
			}
		})
	}
}

func TestBooking_DeadlineUsesLatestOption(t *testing.T) {
	early := slotAt(base.Add(2 * time.Hour))
	late := slotAt(base.Add(30 * time.Hour))
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Options: []SlotOption{
			{Date: early.Date, Times: []string{early.Time}},
			{Date: late.Date, Times: []string{late.Time}},
		},
		Price:    decimal.NewFromInt(100),
		Location: saoPaulo,
	}, base)
	require.NoError(t, err)

	d, ok := b.Deadline()
	require.True(t, ok)
	assert.Equal(t, late.In(saoPaulo), d)
	assert.False(t, b.ExpiryDue(base))
	assert.True(t, b.ExpiryDue(base.Add(7*time.Hour)))

	hours, ok := b.HoursRemaining(base)
	require.True(t, ok)
	assert.InDelta(t, 30.0, hours, 0.001)
}

func TestBooking_ScheduledIsNeverExpired(t *testing.T) {
	b := paidAt(t, base.Add(time.Hour))
	assert.False(t, b.ExpiryDue(base))
	assert.ErrorIs(t, b.Expire(base), ErrInvalidTransition)
}

func TestBooking_Reschedule(t *testing.T) {
	start := base.Add(10 * time.Hour)
	b := paidAt(t, start)
	to := slotAt(base.Add(96 * time.Hour))

	quote, err := b.Reschedule(student(b), to, DefaultRefundPolicy(), base)

	require.NoError(t, err)
	assert.Equal(t, 50, quote.EligiblePercent)
	assert.True(t, quote.RequiresWarning)
	assert.Equal(t, StatusScheduled, b.Status())
	assert.Equal(t, PaymentPaid, b.PaymentStatus())
	got, _ := b.Slot()
	assert.Equal(t, to, got)
}

func TestBooking_RescheduleMustBeFuture(t *testing.T) {
	b := paidAt(t, base.Add(72*time.Hour))

	_, err := b.Reschedule(student(b), slotAt(base.Add(-time.Hour)), DefaultRefundPolicy(), base)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = b.Reschedule(student(b), slotAt(base), DefaultRefundPolicy(), base)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = b.Reschedule(instructor(b), slotAt(base.Add(96*time.Hour)), DefaultRefundPolicy(), base)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_MarkLessonElapsed(t *testing.T) {
	start := base.Add(72 * time.Hour)
	b := paidAt(t, start)

	assert.ErrorIs(t, b.MarkLessonElapsed(SystemActor, start.Add(-time.Minute)), ErrValidation)
	require.NoError(t, b.MarkLessonElapsed(SystemActor, start))
	assert.Equal(t, StatusAwaitingEvaluation, b.Status())
}

func TestBooking_EvaluateRequiresAwaitingEvaluation(t *testing.T) {
	start := base.Add(72 * time.Hour)
	b := paidAt(t, start)

	assert.ErrorIs(t, b.Evaluate(student(b), 4, "", start), ErrInvalidTransition)

	require.NoError(t, b.MarkLessonElapsed(student(b), start.Add(time.Hour)))
	for _, rating := range []int{0, 6, -1} {
		assert.ErrorIs(t, b.Evaluate(student(b), rating, "", start), ErrValidation)
	}
	long := make([]rune, MaxReviewLength+1)
	for i := range long {
		long[i] = 'á'
	}
	assert.ErrorIs(t, b.Evaluate(student(b), 5, string(long), start), ErrValidation)
	assert.Equal(t, StatusAwaitingEvaluation, b.Status())
	_, rated := b.Rating()
	assert.False(t, rated)
}

func TestBooking_SkipEvaluation(t *testing.T) {
	start := base.Add(72 * time.Hour)
	b := paidAt(t, start)
	require.NoError(t, b.MarkLessonElapsed(SystemActor, start))

	require.NoError(t, b.SkipEvaluation(student(b), start.Add(2*time.Hour)))
	assert.Equal(t, StatusCompleted, b.Status())
	_, rated := b.Rating()
	assert.False(t, rated)
}

func TestBooking_RoundTrip(t *testing.T) {
	start := base.Add(72 * time.Hour)
	s := slotAt(start)
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Slot:         &s,
		Price:        decimal.NewFromInt(100),
		Location:     saoPaulo,
	}, base)
	require.NoError(t, err)

	require.NoError(t, b.Accept(instructor(b), nil, base.Add(time.Hour)))
	require.NoError(t, b.Pay(student(b), PaymentReport{Outcome: PaymentSucceeded}, base.Add(2*time.Hour)))
	require.NoError(t, b.MarkLessonElapsed(SystemActor, start.Add(time.Hour)))
	require.NoError(t, b.Evaluate(student(b), 4, "great", start.Add(2*time.Hour)))

	assert.Equal(t, StatusCompleted, b.Status())
	rating, ok := b.Rating()
	require.True(t, ok)
	assert.Equal(t, 4, rating)
	assert.Equal(t, "great", b.Review())
	assert.Equal(t, PaymentPaid, b.PaymentStatus())
	assert.Len(t, b.DomainEvents(), 5)
	assert.Equal(t, start.Add(2*time.Hour).UTC(), b.UpdatedAt())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	start := base.Add(72 * time.Hour)
	b := paidAt(t, start)
	_, err := b.Cancel(instructor(b), "car broke", DefaultRefundPolicy(), base)
	require.NoError(t, err)

	snap := b.Snapshot()
	restored, err := Rehydrate(snap)

	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, b.Refund(), restored.Refund())
	assert.Empty(t, restored.DomainEvents())
}

func TestRehydrate_LegacyStatus(t *testing.T) {
	snap := paidAt(t, base.Add(72*time.Hour)).Snapshot()
	snap.Status = "agendada"

	b, err := Rehydrate(snap)

	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, b.Status())
}

func TestRehydrate_RejectsUnknownStatus(t *testing.T) {
	snap := paidAt(t, base.Add(72*time.Hour)).Snapshot()
	snap.Status = "in_progress"

	_, err := Rehydrate(snap)
	assert.ErrorIs(t, err, ErrValidation)
}
