package domain

import (
	"sort"
	"strings"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusAwaitingAcceptance Status = "awaiting_instructor_acceptance"
	StatusAwaitingPayment    Status = "awaiting_payment"
	StatusScheduled          Status = "scheduled"
	StatusAwaitingEvaluation Status = "awaiting_evaluation"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{
	StatusAwaitingAcceptance,
	StatusAwaitingPayment,
	StatusScheduled,
	StatusAwaitingEvaluation,
	StatusCompleted,
	StatusCancelled,
}

// statusAliases maps legacy and synonym spellings onto canonical states.
var statusAliases = map[string]Status{
	"agendada":   StatusScheduled,
	"confirmada": StatusScheduled,
	"confirmed":  StatusScheduled,
	"canceled":   StatusCancelled,
}

// Aliases returns the legacy spellings stored rows may carry for s, sorted.
func Aliases(s Status) []string {
	var out []string
	for raw, canonical := range statusAliases {
		if canonical == s {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}

// ParseStatus accepts a canonical name or a known alias.
func ParseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := statusAliases[s]; ok {
		return alias, nil
	}
	if st := Status(s); st.IsValid() {
		return st, nil
	}
	return "", NewValidationError("status", "unknown booking status %q", raw)
}

// IsValid reports whether s is one of the enumerated states.
func (s Status) IsValid() bool {
	switch s {
	case StatusAwaitingAcceptance, StatusAwaitingPayment, StatusScheduled,
		StatusAwaitingEvaluation, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsPrePayment reports whether s is one of the two states the sweeper scans.
func (s Status) IsPrePayment() bool {
	return s == StatusAwaitingAcceptance || s == StatusAwaitingPayment
}

func (s Status) String() string { return string(s) }

// PaymentStatus is the money axis, independent of Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// IsValid reports whether p is known.
func (p PaymentStatus) IsValid() bool {
	return p == PaymentPending || p == PaymentPaid || p == PaymentRefunded
}

// PickupType says where the lesson starts.
type PickupType string

const (
	PickupSelfToLocation PickupType = "self_to_location"
	PickupAtHome         PickupType = "pickup_at_home"
)

// IsValid reports whether p is known.
func (p PickupType) IsValid() bool {
	return p == PickupSelfToLocation || p == PickupAtHome
}

// ClassType tags the content of a lesson. The set is open; these are the
// tags the product ships with.
type ClassType string

const (
	ClassParking ClassType = "parking"
	ClassRoad    ClassType = "road"
	ClassHighway ClassType = "highway"
	ClassGeneral ClassType = "general"
)

// NormalizeClassTypes lower-cases, trims and de-duplicates tags, keeping
// first-seen order. Blank tags are rejected.
func NormalizeClassTypes(raw []string) ([]ClassType, error) {
	seen := make(map[ClassType]bool, len(raw))
	out := make([]ClassType, 0, len(raw))
	for _, r := range raw {
		ct := ClassType(strings.ToLower(strings.TrimSpace(r)))
		if ct == "" {
			return nil, NewValidationError("classTypes", "class type must not be blank")
		}
		if seen[ct] {
			continue
		}
		seen[ct] = true
		out = append(out, ct)
	}
	return out, nil
}
