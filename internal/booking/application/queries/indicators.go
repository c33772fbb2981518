package queries

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// InstructorCount is one row of a student's most-booked instructors.
type InstructorCount struct {
	InstructorID uuid.UUID `json:"instructorId"`
	Completed    int       `json:"completed"`
}

// StudentIndicators summarizes a student's bookings.
type StudentIndicators struct {
	CompletedTotal       int                      `json:"completedTotal"`
	CompletedByClassType map[domain.ClassType]int `json:"completedByClassType"`
	Upcoming             []*domain.Booking        `json:"-"`
	TopInstructors       []InstructorCount        `json:"topInstructors"`
}

// ComputeStudentIndicators derives dashboard figures. A completed lesson
// counts once per class type; untagged lessons count as general. Upcoming
// holds scheduled lessons starting in [now, now+within], soonest first.
func ComputeStudentIndicators(bookings []*domain.Booking, now time.Time, within time.Duration, topN int) StudentIndicators {
	ind := StudentIndicators{CompletedByClassType: make(map[domain.ClassType]int)}
	perInstructor := make(map[uuid.UUID]int)

	for _, b := range bookings {
		switch b.Status() {
		case domain.StatusCompleted:
			ind.CompletedTotal++
			perInstructor[b.InstructorID()]++
			types := b.ClassTypes()
			if len(types) == 0 {
				types = []domain.ClassType{domain.ClassGeneral}
			}
			for _, ct := range types {
				ind.CompletedByClassType[ct]++
			}
		case domain.StatusScheduled:
			if upcoming(b, now, within) {
				ind.Upcoming = append(ind.Upcoming, b)
			}
		}
	}
	slices.SortStableFunc(ind.Upcoming, byDeadline)
	ind.TopInstructors = topInstructors(perInstructor, topN)
	return ind
}

func upcoming(b *domain.Booking, now time.Time, within time.Duration) bool {
	start, ok := b.Start()
	return ok && !start.Before(now) && !start.After(now.Add(within))
}

// topInstructors ranks by completed count, then by id for a stable order.
func topInstructors(counts map[uuid.UUID]int, n int) []InstructorCount {
	out := make([]InstructorCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, InstructorCount{InstructorID: id, Completed: c})
	}
	slices.SortFunc(out, func(a, b InstructorCount) int {
		if c := cmp.Compare(b.Completed, a.Completed); c != 0 {
			return c
		}
		return cmp.Compare(a.InstructorID.String(), b.InstructorID.String())
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// InstructorIndicators summarizes an instructor's bookings.
type InstructorIndicators struct {
	PendingRequests  int               `json:"pendingRequests"`
	AwaitingPayment  int               `json:"awaitingPayment"`
	Upcoming         []*domain.Booking `json:"-"`
	CompletedLessons int               `json:"completedLessons"`
	RatingCount      int               `json:"ratingCount"`
	AverageRating    *float64          `json:"averageRating,omitempty"`
	// GrossPaid is what the instructor keeps: paid prices plus the part of
	// refunded prices that was not given back. It equals the admin GrossPaid
	// minus Refunded over the same bookings.
	GrossPaid decimal.Decimal `json:"grossPaid"`
}

// ComputeInstructorIndicators derives an instructor's dashboard figures.
func ComputeInstructorIndicators(bookings []*domain.Booking, now time.Time, within time.Duration) InstructorIndicators {
	ind := InstructorIndicators{GrossPaid: decimal.Zero}
	ratingSum := 0
	for _, b := range bookings {
		switch b.Status() {
		case domain.StatusAwaitingAcceptance:
			ind.PendingRequests++
		case domain.StatusAwaitingPayment:
			ind.AwaitingPayment++
		case domain.StatusScheduled:
			if upcoming(b, now, within) {
				ind.Upcoming = append(ind.Upcoming, b)
			}
		case domain.StatusCompleted:
			ind.CompletedLessons++
		}
		if r, ok := b.Rating(); ok {
			ind.RatingCount++
			ratingSum += r
		}
		switch b.PaymentStatus() {
		case domain.PaymentPaid:
			ind.GrossPaid = ind.GrossPaid.Add(b.Price())
		case domain.PaymentRefunded:
			ind.GrossPaid = ind.GrossPaid.Add(b.Price().Sub(b.Refund().Amount))
		}
	}
	slices.SortStableFunc(ind.Upcoming, byDeadline)
	ind.AverageRating = average(ratingSum, ind.RatingCount)
	return ind
}

// AdminMetrics aggregates across every booking.
type AdminMetrics struct {
	Total         int                   `json:"total"`
	ByStatus      map[domain.Status]int `json:"byStatus"`
	AutoCanceled  int                   `json:"autoCanceled"`
	PastDue       int                   `json:"pastDue"`
	// GrossPaid is every captured price, refunded or not.
	GrossPaid     decimal.Decimal       `json:"grossPaid"`
	Refunded      decimal.Decimal       `json:"refunded"`
	AverageRating *float64              `json:"averageRating,omitempty"`
}

// ComputeAdminMetrics derives platform-wide figures.
func ComputeAdminMetrics(bookings []*domain.Booking, now time.Time) AdminMetrics {
	m := AdminMetrics{
		ByStatus:  make(map[domain.Status]int, len(domain.Statuses)),
		GrossPaid: decimal.Zero,
		Refunded:  decimal.Zero,
	}
	for _, s := range domain.Statuses {
		m.ByStatus[s] = 0
	}
	ratingSum, ratingCount := 0, 0
	for _, b := range bookings {
		m.Total++
		m.ByStatus[b.Status()]++
		if b.AutoCanceled() {
			m.AutoCanceled++
		}
		if b.PastDue(now) {
			m.PastDue++
		}
		switch b.PaymentStatus() {
		case domain.PaymentPaid:
			m.GrossPaid = m.GrossPaid.Add(b.Price())
		case domain.PaymentRefunded:
			m.GrossPaid = m.GrossPaid.Add(b.Price())
			m.Refunded = m.Refunded.Add(b.Refund().Amount)
		}
		if r, ok := b.Rating(); ok {
			ratingSum += r
			ratingCount++
		}
	}
	m.AverageRating = average(ratingSum, ratingCount)
	return m
}

func average(sum, n int) *float64 {
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}
