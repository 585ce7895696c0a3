package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Store implementations when no order matches.
var ErrNotFound = errors.New("order not found")

// NotFoundError indicates a referenced entity is absent. Kind names the
// entity ("customer", "vehicle", "service", "part", "order") and Key is the
// lookup value that failed.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// InvalidQuantityError indicates a line item was added with a non-positive
// quantity.
type InvalidQuantityError struct {
	Ref string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for %s", e.Ref)
}

// LineNotFoundError indicates a removal referenced a line item id the order
// does not hold.
type LineNotFoundError struct {
	LineID string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("line item %s not found", e.LineID)
}

// InvalidTransitionError indicates a status operation was attempted from a
// status it is not defined for.
type InvalidTransitionError struct {
	Operation Operation
	From      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Operation, e.From)
}

// BusinessRuleError indicates a domain constraint was violated by otherwise
// well-formed input.
type BusinessRuleError struct {
	Rule string
}

func (e *BusinessRuleError) Error() string {
	return e.Rule
}

// ActiveOrderConflictError indicates the (customer, vehicle) pair already
// has an order outside the terminal statuses. It is a conflict, not invalid
// input: Status carries the blocking order's current status.
type ActiveOrderConflictError struct {
	Status Status
}

func (e *ActiveOrderConflictError) Error() string {
	return fmt.Sprintf("an active order already exists for this vehicle (status %s)", e.Status)
}
