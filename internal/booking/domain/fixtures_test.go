package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
	return loc
}()

// base is a Sunday noon in São Paulo.
var base = time.Date(2026, 2, 8, 12, 0, 0, 0, saoPaulo)

func slotAt(t time.Time) Slot {
	l := t.In(saoPaulo)
	return Slot{Date: l.Format(DateLayout), Time: l.Format(ClockLayout)}
}

func requestAt(t *testing.T, start time.Time) *Booking {
	t.Helper()
	s := slotAt(start)
	b, err := NewBooking(NewBookingParams{
		StudentID:    uuid.New(),
		InstructorID: uuid.New(),
		Slot:         &s,
		Price:        decimal.NewFromInt(100),
		ClassTypes:   []string{"road"},
		Location:     saoPaulo,
	}, base.Add(-72*time.Hour))
	require.NoError(t, err)
	return b
}

func acceptedAt(t *testing.T, start time.Time) *Booking {
	t.Helper()
	b := requestAt(t, start)
	require.NoError(t, b.Accept(Instructor(b.InstructorID()), nil, base.Add(-48*time.Hour)))
	return b
}

func paidAt(t *testing.T, start time.Time) *Booking {
	t.Helper()
	b := acceptedAt(t, start)
	report := PaymentReport{Outcome: PaymentSucceeded, Reference: "pay_123"}
	require.NoError(t, b.Pay(Student(b.StudentID()), report, base.Add(-47*time.Hour)))
	return b
}

func student(b *Booking) Actor    { return Student(b.StudentID()) }
func instructor(b *Booking) Actor { return Instructor(b.InstructorID()) }
