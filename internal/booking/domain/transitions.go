package domain

import "slices"

// Action is something an actor can do to a booking.
type Action string

const (
	ActionAccept         Action = "accept"
	ActionReject         Action = "reject"
	ActionCancel         Action = "cancel"
	ActionExpire         Action = "expire"
	ActionPay            Action = "pay"
	ActionReschedule     Action = "reschedule"
	ActionElapse         Action = "elapse"
	ActionEvaluate       Action = "evaluate"
	ActionSkipEvaluation Action = "skip_evaluation"
)

// Transition is one row of the legal-transition table.
type Transition struct {
	From   Status
	Action Action
	Roles  []Role
	To     Status
}

var (
	partyRoles   = []Role{RoleStudent, RoleInstructor}
	elapseRoles  = []Role{RoleSystem, RoleStudent, RoleInstructor}
	paymentRoles = []Role{RoleStudent, RoleSystem}
)

// transitions is the only source of truth for which actions are legal.
// Guards that depend on time or input are checked by the aggregate.
var transitions = []Transition{
	{StatusAwaitingAcceptance, ActionAccept, []Role{RoleInstructor}, StatusAwaitingPayment},
	{StatusAwaitingAcceptance, ActionReject, []Role{RoleInstructor}, StatusCancelled},
	{StatusAwaitingAcceptance, ActionCancel, partyRoles, StatusCancelled},
	{StatusAwaitingAcceptance, ActionExpire, []Role{RoleSystem}, StatusCancelled},

	{StatusAwaitingPayment, ActionPay, paymentRoles, StatusScheduled},
	{StatusAwaitingPayment, ActionCancel, partyRoles, StatusCancelled},
	{StatusAwaitingPayment, ActionExpire, []Role{RoleSystem}, StatusCancelled},

	{StatusScheduled, ActionCancel, partyRoles, StatusCancelled},
	{StatusScheduled, ActionReschedule, []Role{RoleStudent}, StatusScheduled},
	{StatusScheduled, ActionElapse, elapseRoles, StatusAwaitingEvaluation},

	{StatusAwaitingEvaluation, ActionEvaluate, []Role{RoleStudent}, StatusCompleted},
	{StatusAwaitingEvaluation, ActionSkipEvaluation, []Role{RoleStudent}, StatusCompleted},
}

// Decide looks up the row for (from, action) and checks the role against it.
func Decide(from Status, action Action, role Role) (Transition, error) {
	for _, t := range transitions {
		if t.From != from || t.Action != action {
			continue
		}
		if !slices.Contains(t.Roles, role) {
			break
		}
		return t, nil
	}
	return Transition{}, &InvalidTransitionError{From: from, Action: action, Role: role}
}

// AllowedActions lists what role may do from the given status.
func AllowedActions(from Status, role Role) []Action {
	var out []Action
	for _, t := range transitions {
		if t.From == from && slices.Contains(t.Roles, role) {
			out = append(out, t.Action)
		}
	}
	return out
}

// Transitions returns a copy of the table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	for i, t := range transitions {
		t.Roles = slices.Clone(t.Roles)
		out[i] = t
	}
	return out
}
