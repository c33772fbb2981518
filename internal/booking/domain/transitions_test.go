package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_LegalTransitions(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		role   Role
		to     Status
	}{
		{StatusAwaitingAcceptance, ActionAccept, RoleInstructor, StatusAwaitingPayment},
		{StatusAwaitingAcceptance, ActionReject, RoleInstructor, StatusCancelled},
		{StatusAwaitingAcceptance, ActionCancel, RoleStudent, StatusCancelled},
		{StatusAwaitingAcceptance, ActionExpire, RoleSystem, StatusCancelled},
		{StatusAwaitingPayment, ActionPay, RoleStudent, StatusScheduled},
		{StatusAwaitingPayment, ActionExpire, RoleSystem, StatusCancelled},
		{StatusScheduled, ActionCancel, RoleInstructor, StatusCancelled},
		{StatusScheduled, ActionReschedule, RoleStudent, StatusScheduled},
		{StatusScheduled, ActionElapse, RoleSystem, StatusAwaitingEvaluation},
		{StatusAwaitingEvaluation, ActionEvaluate, RoleStudent, StatusCompleted},
		{StatusAwaitingEvaluation, ActionSkipEvaluation, RoleStudent, StatusCompleted},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"/"+string(tc.action), func(t *testing.T) {
			tr, err := Decide(tc.from, tc.action, tc.role)
			require.NoError(t, err)
			assert.Equal(t, tc.to, tr.To)
		})
	}
}

func TestDecide_IllegalTransitions(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		role   Role
	}{
		{StatusAwaitingAcceptance, ActionAccept, RoleStudent},
		{StatusAwaitingAcceptance, ActionPay, RoleStudent},
		{StatusAwaitingPayment, ActionAccept, RoleInstructor},
		{StatusScheduled, ActionExpire, RoleSystem},
		{StatusScheduled, ActionReschedule, RoleInstructor},
		{StatusScheduled, ActionEvaluate, RoleStudent},
		{StatusAwaitingEvaluation, ActionCancel, RoleStudent},
		{StatusAwaitingEvaluation, ActionEvaluate, RoleInstructor},
		{StatusCompleted, ActionEvaluate, RoleStudent},
		{StatusCancelled, ActionCancel, RoleStudent},
		{StatusAwaitingPayment, ActionCancel, RoleAdmin},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"/"+string(tc.action)+"/"+string(tc.role), func(t *testing.T) {
			_, err := Decide(tc.from, tc.action, tc.role)
			require.Error(t, err)

			var invalid *InvalidTransitionError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tc.from, invalid.From)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleInstructor, RoleSystem, RoleAdmin} {
		assert.Empty(t, AllowedActions(StatusCompleted, role))
		assert.Empty(t, AllowedActions(StatusCancelled, role))
	}
}

func TestTransitionsTargetKnownStatuses(t *testing.T) {
	for _, tr := range Transitions() {
		assert.True(t, tr.From.IsValid())
		assert.True(t, tr.To.IsValid())
		assert.NotEmpty(t, tr.Roles)
	}
}

func TestAllowedActions(t *testing.T) {
	assert.ElementsMatch(t,
		[]Action{ActionCancel, ActionReschedule, ActionElapse},
		AllowedActions(StatusScheduled, RoleStudent))
	assert.ElementsMatch(t,
		[]Action{ActionAccept, ActionReject, ActionCancel},
		AllowedActions(StatusAwaitingAcceptance, RoleInstructor))
}
