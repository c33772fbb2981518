package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Save(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) Find(ctx context.Context, filter domain.Filter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

var now = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

type builder struct {
	t          *testing.T
	student    uuid.UUID
	instructor uuid.UUID
}

func newBuilder(t *testing.T) *builder {
	return &builder{t: t, student: uuid.New(), instructor: uuid.New()}
}

func (bb *builder) request(start time.Time, classTypes ...string) *domain.Booking {
	bb.t.Helper()
	s := domain.Slot{Date: start.Format(domain.DateLayout), Time: start.Format(domain.ClockLayout)}
	b, err := domain.NewBooking(domain.NewBookingParams{
		StudentID:    bb.student,
		InstructorID: bb.instructor,
		Slot:         &s,
		Price:        decimal.NewFromInt(100),
		ClassTypes:   classTypes,
		Location:     time.UTC,
	}, now.Add(-30*24*time.Hour))
	require.NoError(bb.t, err)
	return b
}

func (bb *builder) scheduled(start time.Time, classTypes ...string) *domain.Booking {
	bb.t.Helper()
	b := bb.request(start, classTypes...)
	require.NoError(bb.t, b.Accept(domain.Instructor(bb.instructor), nil, now.Add(-29*24*time.Hour)))
	require.NoError(bb.t, b.Pay(domain.Student(bb.student), domain.PaymentReport{Outcome: domain.PaymentSucceeded}, now.Add(-29*24*time.Hour)))
	return b
}

func (bb *builder) completed(start time.Time, rating int, classTypes ...string) *domain.Booking {
	bb.t.Helper()
	b := bb.scheduled(start, classTypes...)
	require.NoError(bb.t, b.MarkLessonElapsed(domain.SystemActor, start))
	require.NoError(bb.t, b.Evaluate(domain.Student(bb.student), rating, "", start.Add(time.Hour)))
	return b
}

func TestPartition(t *testing.T) {
	bb := newBuilder(t)
	later := bb.scheduled(now.Add(72 * time.Hour))
	sooner := bb.scheduled(now.Add(24 * time.Hour))
	pending := bb.request(now.Add(48 * time.Hour))
	done := bb.completed(now.Add(-72*time.Hour), 5)
	cancelled := bb.request(now.Add(96 * time.Hour))
	_, err := cancelled.Cancel(domain.Student(bb.student), "", domain.DefaultRefundPolicy(), now)
	require.NoError(t, err)

	got := Partition([]*domain.Booking{later, done, pending, sooner, cancelled})

	assert.Equal(t, []*domain.Booking{sooner, later}, got.Scheduled)
	assert.Equal(t, []*domain.Booking{pending}, got.AwaitingAcceptance)
	assert.Empty(t, got.AwaitingPayment)
	assert.Empty(t, got.AwaitingEvaluation)
	assert.Equal(t, []*domain.Booking{cancelled, done}, got.History)
}

func TestComputeStudentIndicators(t *testing.T) {
	bb := newBuilder(t)
	other := uuid.New()
	bookings := []*domain.Booking{
		bb.completed(now.Add(-96*time.Hour), 5, "parking", "road"),
		bb.completed(now.Add(-72*time.Hour), 4, "road"),
		bb.completed(now.Add(-48*time.Hour), 3),
		bb.scheduled(now.Add(48 * time.Hour)),
		bb.scheduled(now.Add(10 * 24 * time.Hour)),
	}
	bb2 := &builder{t: t, student: bb.student, instructor: other}
	bookings = append(bookings, bb2.completed(now.Add(-24*time.Hour), 5, "highway"))

	ind := ComputeStudentIndicators(bookings, now, 7*24*time.Hour, 1)

	assert.Equal(t, 4, ind.CompletedTotal)
	assert.Equal(t, map[domain.ClassType]int{
		domain.ClassParking: 1,
		domain.ClassRoad:    2,
		domain.ClassGeneral: 1,
		domain.ClassHighway: 1,
	}, ind.CompletedByClassType)
	require.Len(t, ind.Upcoming, 1)
	assert.Equal(t, bookings[3], ind.Upcoming[0])
	assert.Equal(t, []InstructorCount{{InstructorID: bb.instructor, Completed: 3}}, ind.TopInstructors)
}

func TestComputeInstructorIndicators(t *testing.T) {
	bb := newBuilder(t)
	bookings := []*domain.Booking{
		bb.request(now.Add(48 * time.Hour)),
		bb.request(now.Add(50 * time.Hour)),
		bb.scheduled(now.Add(24 * time.Hour)),
		bb.completed(now.Add(-48*time.Hour), 4),
		bb.completed(now.Add(-24*time.Hour), 5),
	}

	ind := ComputeInstructorIndicators(bookings, now, 7*24*time.Hour)

	assert.Equal(t, 2, ind.PendingRequests)
	assert.Len(t, ind.Upcoming, 1)
	assert.Equal(t, 2, ind.CompletedLessons)
	require.NotNil(t, ind.AverageRating)
	assert.InDelta(t, 4.5, *ind.AverageRating, 0.0001)
	assert.True(t, decimal.NewFromInt(300).Equal(ind.GrossPaid))
}

func TestComputeInstructorIndicators_RefundedLessons(t *testing.T) {
	bb := newBuilder(t)
	late := bb.scheduled(now.Add(2 * time.Hour))
	_, err := late.Cancel(domain.Student(bb.student), "", domain.DefaultRefundPolicy(), now)
	require.NoError(t, err)
	early := bb.scheduled(now.Add(72 * time.Hour))
	_, err = early.Cancel(domain.Instructor(bb.instructor), "", domain.DefaultRefundPolicy(), now)
	require.NoError(t, err)
	bookings := []*domain.Booking{late, early, bb.completed(now.Add(-24*time.Hour), 5)}

	ind := ComputeInstructorIndicators(bookings, now, 7*24*time.Hour)
	m := ComputeAdminMetrics(bookings, now)

	// 100 completed + 50 kept from the late cancellation + 0 from the early one
	assert.True(t, decimal.NewFromInt(150).Equal(ind.GrossPaid), ind.GrossPaid.String())
	assert.True(t, m.GrossPaid.Sub(m.Refunded).Equal(ind.GrossPaid))
}

func TestComputeAdminMetrics(t *testing.T) {
	bb := newBuilder(t)
	refunded := bb.scheduled(now.Add(2 * time.Hour))
	_, err := refunded.Cancel(domain.Student(bb.student), "", domain.DefaultRefundPolicy(), now)
	require.NoError(t, err)
	expired := bb.request(now.Add(10 * time.Hour))
	require.NoError(t, expired.Expire(now))
	stale := bb.request(now.Add(-time.Hour))

	m := ComputeAdminMetrics([]*domain.Booking{refunded, expired, stale, bb.completed(now.Add(-24*time.Hour), 3)}, now)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.ByStatus[domain.StatusCancelled])
	assert.Equal(t, 1, m.ByStatus[domain.StatusAwaitingAcceptance])
	assert.Equal(t, 0, m.ByStatus[domain.StatusScheduled])
	assert.Equal(t, 1, m.AutoCanceled)
	assert.Equal(t, 1, m.PastDue)
	assert.True(t, decimal.NewFromInt(200).Equal(m.GrossPaid))
	assert.True(t, decimal.NewFromInt(50).Equal(m.Refunded))
}

func TestGetBookingHandler_Handle(t *testing.T) {
	bb := newBuilder(t)
	b := bb.scheduled(now.Add(48 * time.Hour))
	repo := new(mockBookingRepo)
	repo.On("FindByID", mock.Anything, b.ID()).Return(b, nil)
	handler := NewGetBookingHandler(repo, sharedDomain.NewFixedClock(now))

	dto, err := handler.Handle(context.Background(), GetBookingQuery{BookingID: b.ID(), Actor: domain.Student(bb.student)})
	require.NoError(t, err)
	assert.Equal(t, b.ID(), dto.ID)
	require.NotNil(t, dto.Start)
	assert.Equal(t, now.Add(48*time.Hour), *dto.Start)

	_, err = handler.Handle(context.Background(), GetBookingQuery{BookingID: b.ID(), Actor: domain.Student(uuid.New())})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = handler.Handle(context.Background(), GetBookingQuery{BookingID: b.ID(), Actor: domain.Actor{Role: domain.RoleAdmin}})
	assert.NoError(t, err)
}

func TestListBookingsHandler_Handle(t *testing.T) {
	bb := newBuilder(t)
	b := bb.scheduled(now.Add(48 * time.Hour))
	repo := new(mockBookingRepo)
	repo.On("Find", mock.Anything, domain.Filter{
		InstructorID: bb.instructor,
		Statuses:     []domain.Status{domain.StatusScheduled},
		Limit:        10,
	}).Return([]*domain.Booking{b}, nil)
	handler := NewListBookingsHandler(repo, sharedDomain.NewFixedClock(now))

	got, err := handler.Handle(context.Background(), ListBookingsQuery{
		Actor:    domain.Instructor(bb.instructor),
		Statuses: []string{"confirmada"},
		Limit:    10,
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusScheduled, got[0].Status)
	repo.AssertExpectations(t)

	_, err = handler.Handle(context.Background(), ListBookingsQuery{Actor: domain.Student(bb.student), Statuses: []string{"bogus"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestQuoteRefundHandler_Handle(t *testing.T) {
	bb := newBuilder(t)
	b := bb.scheduled(now.Add(2 * time.Hour))
	repo := new(mockBookingRepo)
	repo.On("FindByID", mock.Anything, b.ID()).Return(b, nil)
	handler := NewQuoteRefundHandler(repo, sharedDomain.NewFixedClock(now), domain.DefaultRefundPolicy())

	quote, err := handler.Handle(context.Background(), QuoteRefundQuery{BookingID: b.ID(), Actor: domain.Student(bb.student)})

	require.NoError(t, err)
	assert.Equal(t, 50, quote.EligiblePercent)
	assert.True(t, quote.RequiresWarning)
	assert.Equal(t, domain.StatusScheduled, b.Status())
}

func TestDashboardHandler_Admin(t *testing.T) {
	repo := new(mockBookingRepo)
	handler := NewDashboardHandler(repo, sharedDomain.NewFixedClock(now), DashboardConfig{})

	_, err := handler.Admin(context.Background(), domain.Student(uuid.New()))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	repo.On("Find", mock.Anything, domain.Filter{}).Return([]*domain.Booking{}, nil)
	m, err := handler.Admin(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Zero(t, m.Total)
	assert.Nil(t, m.AverageRating)
}

func TestDashboardHandler_Student(t *testing.T) {
	bb := newBuilder(t)
	bookings := []*domain.Booking{bb.scheduled(now.Add(24 * time.Hour)), bb.request(now.Add(72 * time.Hour))}
	repo := new(mockBookingRepo)
	repo.On("Find", mock.Anything, domain.Filter{StudentID: bb.student}).Return(bookings, nil)
	handler := NewDashboardHandler(repo, sharedDomain.NewFixedClock(now), DefaultDashboardConfig())

	dash, err := handler.Student(context.Background(), bb.student)

	require.NoError(t, err)
	assert.Len(t, dash.Buckets.Scheduled, 1)
	assert.Len(t, dash.Buckets.AwaitingAcceptance, 1)
	assert.Len(t, dash.Upcoming, 1)
}
