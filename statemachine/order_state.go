package statemachine

import (
	"errors"

	"campus-eats-api/models"
)

// allowedTransitions is the authoritative state machine definition.
// Cancellation is permitted at every pre-pickup stage; once the rider has
// physically picked up the food the only forward path is completion.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusAccepted, models.StatusCancelled},
	models.StatusAccepted:  {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusPickedUp, models.StatusCancelled},
	models.StatusPickedUp:  {models.StatusDelivered},
	models.StatusDelivered: {},
	models.StatusCancelled: {},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for from, tos := range allowedTransitions {
		for _, to := range tos {
			m[transitionKey{from, to}] = true
		}
	}
	return m
}()

// IsValidTransition reports whether an order may move from one status to
// another. Actor-scoped rules are layered on top by the orchestrator; this
// is a pure lookup over the fixed graph.
func IsValidTransition(from, to models.OrderStatus) bool {
	return transitionMap[transitionKey{From: from, To: to}]
}

// NextStatuses returns all valid next states from a given state
func NextStatuses(status models.OrderStatus) []models.OrderStatus {
	return allowedTransitions[status]
}

// CheckTransition returns a descriptive error identifying the illegal
// (current → requested) pair, or nil when the move is legal.
func CheckTransition(from, to models.OrderStatus) error {
	if IsValidTransition(from, to) {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed. Valid transitions from " + string(from) +
			" are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := NextStatuses(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllTransitions returns the full state machine for documentation
func AllTransitions() map[models.OrderStatus][]models.OrderStatus {
	out := make(map[models.OrderStatus][]models.OrderStatus, len(allowedTransitions))
	for from, tos := range allowedTransitions {
		out[from] = append([]models.OrderStatus(nil), tos...)
	}
	return out
}
