package inventory

import "errors"

// Reservation and lookup failures are expected, recoverable conditions.
// They are returned to the caller and mapped to API error codes at the
// HTTP boundary; they never corrupt the ledger invariant.
var (
	// ErrProductNotFound means the product has no known snapshot.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock means a reserve request exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrReservationNotFound means the reservation id is unknown or already released.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrInvalidQuantity means a reserve request with a non-positive quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)
