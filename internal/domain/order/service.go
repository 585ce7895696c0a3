package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/inventory"
	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

// Notifier informs a customer that their order was completed. Failures are
// logged by the workflow and never surfaced: a completed order is not
// rolled back because a notification could not be sent.
type Notifier interface {
	NotifyCompletion(ctx context.Context, o *ServiceOrder, c *customer.Customer) error
}

// CreateOrderRequest holds the input for opening a service order. Both
// reference lists may be empty; each reference is billed with quantity 1.
type CreateOrderRequest struct {
	CustomerDocument string
	VehiclePlate     string
	ServiceIDs       []string
	PartIDs          []string
}

// Detail is an order joined with its resolved customer and vehicle.
type Detail struct {
	Order    *ServiceOrder
	Customer *customer.Customer
	Vehicle  *vehicle.Vehicle
}

// API is the workflow surface exposed to the transport layer. *Service is
// the canonical implementation; decorators wrap it.
type API interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*ServiceOrder, error)
	TransitionStatus(ctx context.Context, orderID string, target Status) (*ServiceOrder, error)
	GetOrder(ctx context.Context, orderID string) (*Detail, error)
	ListOrders(ctx context.Context) ([]*ServiceOrder, error)
	AverageDuration(ctx context.Context, serviceID string) (*DurationReport, error)
}

var _ API = (*Service)(nil)

// Service implements the service-order workflows on top of the directory,
// catalog, ledger and store ports.
type Service struct {
	customers customer.Directory
	vehicles  vehicle.Directory
	services  catalog.ServiceRepository
	parts     catalog.PartRepository
	ledger    inventory.Ledger
	orders    Store
	notifier  Notifier
}

// NewService creates the workflow service with its required ports.
func NewService(
	customers customer.Directory,
	vehicles vehicle.Directory,
	services catalog.ServiceRepository,
	parts catalog.PartRepository,
	ledger inventory.Ledger,
	orders Store,
	notifier Notifier,
) *Service {
	return &Service{
		customers: customers,
		vehicles:  vehicles,
		services:  services,
		parts:     parts,
		ledger:    ledger,
		orders:    orders,
		notifier:  notifier,
	}
}

// CreateOrder resolves the customer, vehicle and catalog references, checks
// the single-active-order rule, reserves part stock, and persists a new
// order in the initial status.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*ServiceOrder, error) {
	cust, err := s.customers.FindByDocument(ctx, req.CustomerDocument)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, &NotFoundError{Kind: "customer", Key: req.CustomerDocument}
		}
		return nil, errors.Wrap(err, "find customer")
	}

	veh, err := s.vehicles.FindByPlate(ctx, req.VehiclePlate)
	if err != nil {
		if errors.Is(err, vehicle.ErrNotFound) {
			return nil, &NotFoundError{Kind: "vehicle", Key: req.VehiclePlate}
		}
		return nil, errors.Wrap(err, "find vehicle")
	}

	if !veh.OwnedBy(cust.ID) {
		return nil, &BusinessRuleError{Rule: "plate does not belong to customer"}
	}

	active, err := s.orders.FindActive(ctx, cust.ID, veh.ID, TerminalStatuses())
	if err != nil {
		return nil, errors.Wrap(err, "check active order")
	}
	if active != nil {
		return nil, &ActiveOrderConflictError{Status: active.Status}
	}

	services := make([]catalog.Service, 0, len(req.ServiceIDs))
	for _, id := range req.ServiceIDs {
		svc, err := s.services.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrServiceNotFound) {
				return nil, &NotFoundError{Kind: "service", Key: id}
			}
			return nil, errors.Wrap(err, "find service")
		}
		services = append(services, *svc)
	}

	parts := make([]catalog.Part, 0, len(req.PartIDs))
	for _, id := range req.PartIDs {
		part, err := s.parts.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrPartNotFound) {
				return nil, &NotFoundError{Kind: "part", Key: id}
			}
			return nil, errors.Wrap(err, "find part")
		}
		parts = append(parts, *part)
	}

	o := New(cust.ID, veh.ID)
	for _, svc := range services {
		if err := o.AddService(svc, 1); err != nil {
			return nil, err
		}
	}

	// Reserve stock before adding each part line. Reservations already made
	// are restored if a later step fails, replacing the single-transaction
	// rollback this flow would otherwise need.
	reserved := make([]PartLine, 0, len(parts))
	restore := func() {
		for _, line := range reserved {
			if rerr := s.ledger.Restore(ctx, line.PartID, line.Quantity); rerr != nil {
				zctx.From(ctx).Error("restore reserved stock",
					zap.String("part_id", line.PartID),
					zap.Int("quantity", line.Quantity),
					zap.Error(rerr),
				)
			}
		}
	}

	for _, part := range parts {
		if err := s.ledger.Reserve(ctx, part.ID, 1); err != nil {
			restore()
			return nil, err
		}
		if err := o.AddPart(part, 1); err != nil {
			restore()
			return nil, err
		}
		reserved = append(reserved, o.PartLines[len(o.PartLines)-1])
	}

	if err := s.orders.Create(ctx, o); err != nil {
		restore()
		var conflict *ActiveOrderConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// TransitionStatus moves an order to the requested target status when the
// transition table defines an operation for it. Completing an order
// triggers the customer notification; notification failures are logged and
// swallowed.
func (s *Service) TransitionStatus(ctx context.Context, orderID string, target Status) (*ServiceOrder, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Kind: "order", Key: orderID}
		}
		return nil, errors.Wrap(err, "find order")
	}

	op, ok := OperationFor(o.Status, target)
	if !ok {
		return nil, &InvalidTransitionError{Operation: Operation("move to " + string(target)), From: o.Status}
	}

	if err := o.Apply(op); err != nil {
		return nil, err
	}

	if op == OpComplete {
		s.notifyCompletion(ctx, o)
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	return o, nil
}

func (s *Service) notifyCompletion(ctx context.Context, o *ServiceOrder) {
	lg := zctx.From(ctx).With(zap.String("order_id", o.ID))

	cust, err := s.customers.FindByID(ctx, o.CustomerID)
	if err != nil {
		lg.Warn("completion notification skipped: customer lookup failed", zap.Error(err))
		return
	}
	if err := s.notifier.NotifyCompletion(ctx, o, cust); err != nil {
		lg.Warn("completion notification failed", zap.Error(err))
	}
}

// GetOrder loads an order with its customer and vehicle resolved.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Detail, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Kind: "order", Key: orderID}
		}
		return nil, errors.Wrap(err, "find order")
	}

	cust, err := s.customers.FindByID(ctx, o.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "find customer")
	}
	veh, err := s.vehicles.FindByID(ctx, o.VehicleID)
	if err != nil {
		return nil, errors.Wrap(err, "find vehicle")
	}

	return &Detail{Order: o, Customer: cust, Vehicle: veh}, nil
}

// ListOrders returns all orders.
func (s *Service) ListOrders(ctx context.Context) ([]*ServiceOrder, error) {
	return s.orders.FindAll(ctx)
}
