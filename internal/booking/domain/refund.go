package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund is what a cancellation or reschedule would return to the student.
type Refund struct {
	EligiblePercent int             `json:"eligibleRefundPercent"`
	RequiresWarning bool            `json:"requiresWarning"`
	Amount          decimal.Decimal `json:"amount"`
}

// IsZero reports whether nothing is refunded.
func (r Refund) IsZero() bool { return r.EligiblePercent == 0 }

// RefundPolicy turns notice time into a refund share.
type RefundPolicy struct {
	// FullRefundNotice is the minimum notice for a full refund.
	FullRefundNotice time.Duration
	// LatePercent applies when notice is shorter, including after the start.
	LatePercent int
}

// DefaultRefundPolicy is 100% with a day's notice, 50% otherwise.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{FullRefundNotice: 24 * time.Hour, LatePercent: 50}
}

// Quote evaluates the policy. Only paid, scheduled lessons are refundable.
func (p RefundPolicy) Quote(status Status, payment PaymentStatus, price decimal.Decimal, start, now time.Time) Refund {
	if status != StatusScheduled || payment != PaymentPaid {
		return Refund{Amount: decimal.Zero}
	}
	pct := p.LatePercent
	warn := true
	if start.Sub(now) >= p.FullRefundNotice {
		pct, warn = 100, false
	}
	return Refund{
		EligiblePercent: pct,
		RequiresWarning: warn,
		Amount:          price.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(2),
	}
}
