package vehicle

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a vehicle cannot be located by any key.
var ErrNotFound = errors.New("vehicle not found")

// Vehicle is a customer's car identified by its license plate. CustomerID is
// empty for vehicles registered without an owner.
type Vehicle struct {
	ID         string
	Plate      string
	Brand      string
	Model      string
	Year       int
	CustomerID string
	CreatedAt  time.Time
}

// OwnedBy reports whether the vehicle belongs to the given customer. A
// vehicle without an owner belongs to nobody.
func (v *Vehicle) OwnedBy(customerID string) bool {
	return v.CustomerID != "" && v.CustomerID == customerID
}

// Directory provides lookup and registration of vehicles.
type Directory interface {
	FindByPlate(ctx context.Context, plate string) (*Vehicle, error)
	FindByID(ctx context.Context, id string) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	Create(ctx context.Context, v *Vehicle) error
}
