// Package order holds the service-order aggregate and its workflow.
//
// A ServiceOrder tracks the services and parts billed against one
// customer/vehicle pair, its position in the repair lifecycle, and the
// running total of all line items.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
)

// ServiceLine is one billed service on an order. UnitPrice is a snapshot of
// the catalog price at add-time and never changes afterwards.
type ServiceLine struct {
	ID        string
	ServiceID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// PartLine is one billed part on an order, with the same snapshot semantics
// as ServiceLine.
type PartLine struct {
	ID        string
	PartID    string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// ServiceOrder is the aggregate root. Total always equals the exact decimal
// sum of all line totals; every item mutation recomputes it.
type ServiceOrder struct {
	ID           string
	CustomerID   string
	VehicleID    string
	Status       Status
	ServiceLines []ServiceLine
	PartLines    []PartLine
	Total        decimal.Decimal
	CreatedAt    time.Time
	CompletedAt  *time.Time
	DeliveredAt  *time.Time
}

// New creates an order in the initial status with a zero total.
func New(customerID, vehicleID string) *ServiceOrder {
	return &ServiceOrder{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		VehicleID:  vehicleID,
		Status:     StatusReceived,
		Total:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
}

// AddService appends a service line with a price snapshot from the catalog
// entry and recomputes the total.
func (o *ServiceOrder) AddService(svc catalog.Service, quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Ref: svc.ID}
	}
	qty := decimal.NewFromInt(int64(quantity))
	o.ServiceLines = append(o.ServiceLines, ServiceLine{
		ID:        uuid.New().String(),
		ServiceID: svc.ID,
		Name:      svc.Name,
		Quantity:  quantity,
		UnitPrice: svc.Price,
		LineTotal: svc.Price.Mul(qty),
	})
	o.recomputeTotal()
	return nil
}

// AddPart appends a part line with a price snapshot and recomputes the
// total. Stock must already be reserved in the ledger by the caller; the
// aggregate never holds more part quantity than the ledger released.
func (o *ServiceOrder) AddPart(part catalog.Part, quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Ref: part.ID}
	}
	qty := decimal.NewFromInt(int64(quantity))
	o.PartLines = append(o.PartLines, PartLine{
		ID:        uuid.New().String(),
		PartID:    part.ID,
		Name:      part.Name,
		Quantity:  quantity,
		UnitPrice: part.Price,
		LineTotal: part.Price.Mul(qty),
	})
	o.recomputeTotal()
	return nil
}

// RemoveService removes a service line by its line id and recomputes the
// total.
func (o *ServiceOrder) RemoveService(lineID string) error {
	for i, line := range o.ServiceLines {
		if line.ID == lineID {
			o.ServiceLines = append(o.ServiceLines[:i], o.ServiceLines[i+1:]...)
			o.recomputeTotal()
			return nil
		}
	}
	return &LineNotFoundError{LineID: lineID}
}

// RemovePart removes a part line by its line id and recomputes the total.
// Removed quantities are NOT returned to the inventory ledger.
func (o *ServiceOrder) RemovePart(lineID string) error {
	for i, line := range o.PartLines {
		if line.ID == lineID {
			o.PartLines = append(o.PartLines[:i], o.PartLines[i+1:]...)
			o.recomputeTotal()
			return nil
		}
	}
	return &LineNotFoundError{LineID: lineID}
}

// HasService reports whether any service line references the given catalog
// service.
func (o *ServiceOrder) HasService(serviceID string) bool {
	for _, line := range o.ServiceLines {
		if line.ServiceID == serviceID {
			return true
		}
	}
	return false
}

func (o *ServiceOrder) recomputeTotal() {
	total := decimal.Zero
	for _, line := range o.ServiceLines {
		total = total.Add(line.LineTotal)
	}
	for _, line := range o.PartLines {
		total = total.Add(line.LineTotal)
	}
	o.Total = total
}

// apply moves the order along the transition table.
func (o *ServiceOrder) apply(op Operation) error {
	to, ok := transitions[o.Status][op]
	if !ok {
		return &InvalidTransitionError{Operation: op, From: o.Status}
	}
	o.Status = to
	return nil
}

// StartDiagnosis moves the order from Received to InDiagnosis.
func (o *ServiceOrder) StartDiagnosis() error {
	return o.apply(OpStartDiagnosis)
}

// RequestApproval moves the order from InDiagnosis to AwaitingApproval.
func (o *ServiceOrder) RequestApproval() error {
	return o.apply(OpRequestApproval)
}

// Approve moves the order from AwaitingApproval to InExecution.
func (o *ServiceOrder) Approve() error {
	return o.apply(OpApprove)
}

// Complete moves the order from InExecution to Completed and stamps the
// completion time.
func (o *ServiceOrder) Complete() error {
	if err := o.apply(OpComplete); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.CompletedAt = &now
	return nil
}

// Deliver moves the order from Completed to Delivered and stamps the
// delivery time.
func (o *ServiceOrder) Deliver() error {
	if err := o.apply(OpDeliver); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.DeliveredAt = &now
	return nil
}

// Apply executes the named transition operation.
func (o *ServiceOrder) Apply(op Operation) error {
	switch op {
	case OpComplete:
		return o.Complete()
	case OpDeliver:
		return o.Deliver()
	default:
		return o.apply(op)
	}
}

// Store defines persistence operations for service orders.
type Store interface {
	// Create persists a new order. Implementations must make the
	// active-order uniqueness check and the insert a single atomic unit,
	// returning *ActiveOrderConflictError when the (customer, vehicle)
	// pair already holds a non-terminal order.
	Create(ctx context.Context, o *ServiceOrder) error

	// Update persists status, timestamps, line items and total of an
	// existing order.
	Update(ctx context.Context, o *ServiceOrder) error

	FindByID(ctx context.Context, id string) (*ServiceOrder, error)
	FindAll(ctx context.Context) ([]*ServiceOrder, error)

	// FindActive returns the order for the pair whose status is outside
	// excluded, or nil when there is none.
	FindActive(ctx context.Context, customerID, vehicleID string, excluded []Status) (*ServiceOrder, error)
}
