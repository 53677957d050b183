package orders

import "errors"

// Failure classes surfaced by the orchestrator. Handlers map these onto
// HTTP status codes; callers compare with errors.Is.
var (
	// ErrNotFound covers an order, rider or restaurant that is absent or
	// not owned by the acting party.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned for a status-graph violation, and
	// also when a conditional update loses against a concurrent writer —
	// the caller should re-fetch and retry deliberately.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthorized is an actor/role mismatch on an existing order.
	ErrUnauthorized = errors.New("actor not allowed to perform this action")

	ErrAlreadyAssigned  = errors.New("order already has a rider assigned")
	ErrRiderUnavailable = errors.New("rider is not online and available")

	ErrInvalidItems          = errors.New("no valid items in order")
	ErrRestaurantUnavailable = errors.New("restaurant is closed or not approved")

	ErrReasonRequired = errors.New("rejection reason is required")
	ErrAlreadyRated   = errors.New("order has already been rated")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")

	ErrInvalidPaymentStatus = errors.New("unknown payment status")
)
