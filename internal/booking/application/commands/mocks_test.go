package commands

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// mockBookingRepo is a mock implementation of domain.Repository.
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

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, errMsg, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	args := m.Called(ctx, id, reason, at)
	return args.Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	args := m.Called(ctx, publishedBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxRepo) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type txKey struct{}

type fixture struct {
	repo       *mockBookingRepo
	outboxRepo *mockOutboxRepo
	uow        *mockUnitOfWork
	ctx        context.Context
	txCtx      context.Context
}

func newFixture() *fixture {
	ctx := context.Background()
	return &fixture{
		repo:       new(mockBookingRepo),
		outboxRepo: new(mockOutboxRepo),
		uow:        new(mockUnitOfWork),
		ctx:        ctx,
		txCtx:      context.WithValue(ctx, txKey{}, "transaction"),
	}
}

// expectCommit wires a successful load-save-publish cycle for b.
func (f *fixture) expectCommit(b *domain.Booking) {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Commit", f.txCtx).Return(nil)
	f.repo.On("FindByID", f.txCtx, b.ID()).Return(b, nil)
	f.repo.On("Save", f.txCtx, b).Return(nil)
	f.outboxRepo.On("SaveBatch", f.txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)
}

// expectRollback wires a load of b followed by a rolled back transaction.
func (f *fixture) expectRollback(b *domain.Booking) {
	f.uow.On("Begin", f.ctx).Return(f.txCtx, nil)
	f.uow.On("Rollback", f.txCtx).Return(nil)
	f.repo.On("FindByID", f.txCtx, b.ID()).Return(b, nil)
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.repo.AssertExpectations(t)
	f.outboxRepo.AssertExpectations(t)
	f.uow.AssertExpectations(t)
}

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
	return loc
}()

var now = time.Date(2026, 2, 8, 12, 0, 0, 0, saoPaulo)

func slotAt(t time.Time) domain.Slot {
	l := t.In(saoPaulo)
	return domain.Slot{Date: l.Format(domain.DateLayout), Time: l.Format(domain.ClockLayout)}
}

// requested returns a stored-looking booking awaiting the instructor.
func requested(t *testing.T, start time.Time) *domain.Booking {
	t.Helper()
	s := slotAt(start)
	b, err := domain.NewBooking(domain.NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Slot:         &s,
		Price:        decimal.NewFromInt(100),
		Location:     saoPaulo,
	}, now.Add(-72*time.Hour))
	require.NoError(t, err)
	b.ClearDomainEvents()
	b.SetVersion(1)
	return b
}

func scheduled(t *testing.T, start time.Time) *domain.Booking {
	t.Helper()
	b := requested(t, start)
	require.NoError(t, b.Accept(domain.Instructor(b.InstructorID()), nil, now.Add(-48*time.Hour)))
	require.NoError(t, b.Pay(domain.Student(b.StudentID()), domain.PaymentReport{Outcome: domain.PaymentSucceeded}, now.Add(-47*time.Hour)))
	b.ClearDomainEvents()
	return b
}
