// Package inventory defines the stock ledger for catalog parts.
package inventory

import (
	"context"
	"fmt"
)

// InsufficientStockError indicates a reservation asked for more units than
// the ledger holds for a part.
type InsufficientStockError struct {
	PartID   string
	Quantity int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s: requested %d", e.PartID, e.Quantity)
}

// Ledger holds the authoritative per-part stock counters.
//
// Reserve is the only operation that can fail on quantity; implementations
// must perform the availability check and the decrement as one atomic step
// so stock never goes negative under concurrent reservations.
type Ledger interface {
	// Reserve decrements the part's stock by quantity. It returns
	// *InsufficientStockError when fewer than quantity units are available.
	Reserve(ctx context.Context, partID string, quantity int) error

	// Restore increments the part's stock by quantity unconditionally.
	// It is used by stock replenishment, not by the order workflow.
	Restore(ctx context.Context, partID string, quantity int) error
}
