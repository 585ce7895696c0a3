package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a customer cannot be located by any key.
var ErrNotFound = errors.New("customer not found")

// Customer is the owner of one or more vehicles and the billing target of
// service orders.
type Customer struct {
	ID        string
	Name      string
	Document  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Directory provides lookup and registration of customers.
type Directory interface {
	FindByDocument(ctx context.Context, document string) (*Customer, error)
	FindByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
}
