package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/inventory"
	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

type mockCustomers struct {
	byDocument map[string]*customer.Customer
	byID       map[string]*customer.Customer
	err        error
}

func (m *mockCustomers) FindByDocument(_ context.Context, document string) (*customer.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byDocument[document]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomers) FindByID(_ context.Context, id string) (*customer.Customer, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomers) List(context.Context) ([]customer.Customer, error) { return nil, nil }
func (m *mockCustomers) Create(context.Context, *customer.Customer) error { return nil }

type mockVehicles struct {
	byPlate map[string]*vehicle.Vehicle
	byID    map[string]*vehicle.Vehicle
}

func (m *mockVehicles) FindByPlate(_ context.Context, plate string) (*vehicle.Vehicle, error) {
	v, ok := m.byPlate[plate]
	if !ok {
		return nil, vehicle.ErrNotFound
	}
	return v, nil
}

func (m *mockVehicles) FindByID(_ context.Context, id string) (*vehicle.Vehicle, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, vehicle.ErrNotFound
	}
	return v, nil
}

func (m *mockVehicles) List(context.Context) ([]vehicle.Vehicle, error) { return nil, nil }
func (m *mockVehicles) Create(context.Context, *vehicle.Vehicle) error { return nil }

type mockServiceRepo struct {
	services map[string]catalog.Service
}

func (m *mockServiceRepo) FindByID(_ context.Context, id string) (*catalog.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &s, nil
}

func (m *mockServiceRepo) List(context.Context) ([]catalog.Service, error) { return nil, nil }
func (m *mockServiceRepo) Create(context.Context, *catalog.Service) error { return nil }

type mockPartRepo struct {
	parts map[string]catalog.Part
}

func (m *mockPartRepo) FindByID(_ context.Context, id string) (*catalog.Part, error) {
	p, ok := m.parts[id]
	if !ok {
		return nil, catalog.ErrPartNotFound
	}
	return &p, nil
}

func (m *mockPartRepo) List(context.Context) ([]catalog.Part, error) { return nil, nil }
func (m *mockPartRepo) Create(context.Context, *catalog.Part) error { return nil }

type mockLedger struct {
	stock    map[string]int
	restored map[string]int
}

func newMockLedger(stock map[string]int) *mockLedger {
	return &mockLedger{stock: stock, restored: make(map[string]int)}
}

func (m *mockLedger) Reserve(_ context.Context, partID string, quantity int) error {
	if m.stock[partID] < quantity {
		return &inventory.InsufficientStockError{PartID: partID, Quantity: quantity}
	}
	m.stock[partID] -= quantity
	return nil
}

func (m *mockLedger) Restore(_ context.Context, partID string, quantity int) error {
	m.stock[partID] += quantity
	m.restored[partID] += quantity
	return nil
}

type mockStore struct {
	orders    map[string]*ServiceOrder
	active    *ServiceOrder
	createErr error
	updateErr error
	created   []*ServiceOrder
	updated   []*ServiceOrder
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[string]*ServiceOrder)}
}

func (m *mockStore) Create(_ context.Context, o *ServiceOrder) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[o.ID] = o
	m.created = append(m.created, o)
	return nil
}

func (m *mockStore) Update(_ context.Context, o *ServiceOrder) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.orders[o.ID] = o
	m.updated = append(m.updated, o)
	return nil
}

func (m *mockStore) FindByID(_ context.Context, id string) (*ServiceOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockStore) FindAll(context.Context) ([]*ServiceOrder, error) {
	all := make([]*ServiceOrder, 0, len(m.orders))
	for _, o := range m.orders {
		all = append(all, o)
	}
	return all, nil
}

func (m *mockStore) FindActive(context.Context, string, string, []Status) (*ServiceOrder, error) {
	return m.active, nil
}

type mockNotifier struct {
	calls int
	err   error
}

func (m *mockNotifier) NotifyCompletion(context.Context, *ServiceOrder, *customer.Customer) error {
	m.calls++
	return m.err
}

type fixture struct {
	customers *mockCustomers
	vehicles  *mockVehicles
	services  *mockServiceRepo
	parts     *mockPartRepo
	ledger    *mockLedger
	store     *mockStore
	notifier  *mockNotifier
	svc       *Service
}

func newFixture() *fixture {
	cust := &customer.Customer{ID: "cust-1", Name: "Marina Lopes", Document: "12345678900"}
	veh := &vehicle.Vehicle{ID: "veh-1", Plate: "ABC1D23", CustomerID: "cust-1"}

	f := &fixture{
		customers: &mockCustomers{
			byDocument: map[string]*customer.Customer{cust.Document: cust},
			byID:       map[string]*customer.Customer{cust.ID: cust},
		},
		vehicles: &mockVehicles{
			byPlate: map[string]*vehicle.Vehicle{veh.Plate: veh},
			byID:    map[string]*vehicle.Vehicle{veh.ID: veh},
		},
		services: &mockServiceRepo{services: map[string]catalog.Service{
			"svc-oil": {ID: "svc-oil", Name: "Oil change", Price: decimal.RequireFromString("100.00")},
		}},
		parts: &mockPartRepo{parts: map[string]catalog.Part{
			"part-filter": {ID: "part-filter", Name: "Oil filter", Price: decimal.RequireFromString("50.00")},
			"part-pads":   {ID: "part-pads", Name: "Brake pad set", Price: decimal.RequireFromString("50.00")},
		}},
		ledger:   newMockLedger(map[string]int{"part-filter": 5, "part-pads": 5}),
		store:    newMockStore(),
		notifier: &mockNotifier{},
	}
	f.svc = NewService(f.customers, f.vehicles, f.services, f.parts, f.ledger, f.store, f.notifier)
	return f
}

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerDocument: "12345678900",
		VehiclePlate:     "ABC1D23",
		ServiceIDs:       []string{"svc-oil"},
		PartIDs:          []string{"part-filter", "part-pads"},
	}
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture()

	o, err := f.svc.CreateOrder(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "cust-1", o.CustomerID)
	assert.Equal(t, "veh-1", o.VehicleID)
	assert.Equal(t, StatusReceived, o.Status)
	require.Len(t, o.ServiceLines, 1)
	require.Len(t, o.PartLines, 2)
	assert.Equal(t, 1, o.PartLines[0].Quantity)
	assert.True(t, decimal.RequireFromString("200.00").Equal(o.Total))

	require.Len(t, f.store.created, 1)
	assert.Equal(t, 4, f.ledger.stock["part-filter"])
	assert.Equal(t, 4, f.ledger.stock["part-pads"])
}

func TestCreateOrder_EmptyItemLists(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.ServiceIDs = nil
	req.PartIDs = nil

	o, err := f.svc.CreateOrder(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, o.ServiceLines)
	assert.Empty(t, o.PartLines)
	assert.True(t, decimal.Zero.Equal(o.Total))
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.CustomerDocument = "00000000000"

	_, err := f.svc.CreateOrder(context.Background(), req)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "customer", nfErr.Kind)
	assert.Empty(t, f.store.created)
}

func TestCreateOrder_VehicleNotFound(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.VehiclePlate = "ZZZ0Z00"

	_, err := f.svc.CreateOrder(context.Background(), req)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "vehicle", nfErr.Kind)
}

func TestCreateOrder_VehicleOwnedByAnotherCustomer(t *testing.T) {
	f := newFixture()
	f.vehicles.byPlate["ABC1D23"].CustomerID = "cust-2"

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, "plate does not belong to customer", brErr.Rule)
}

func TestCreateOrder_VehicleWithoutOwner(t *testing.T) {
	f := newFixture()
	f.vehicles.byPlate["ABC1D23"].CustomerID = ""

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
}

func TestCreateOrder_ActiveOrderConflict(t *testing.T) {
	f := newFixture()
	f.store.active = &ServiceOrder{ID: "existing", Status: StatusInExecution}

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	var conflict *ActiveOrderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StatusInExecution, conflict.Status)
	assert.Empty(t, f.store.created)
	assert.Equal(t, 5, f.ledger.stock["part-filter"])
}

func TestCreateOrder_ConflictSurfacedByStore(t *testing.T) {
	f := newFixture()
	f.store.createErr = &ActiveOrderConflictError{Status: StatusReceived}

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	var conflict *ActiveOrderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StatusReceived, conflict.Status)
	// Reservations made before the insert failed are compensated.
	assert.Equal(t, 5, f.ledger.stock["part-filter"])
	assert.Equal(t, 5, f.ledger.stock["part-pads"])
}

func TestCreateOrder_ServiceNotFound(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.ServiceIDs = []string{"svc-missing"}

	_, err := f.svc.CreateOrder(context.Background(), req)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "service", nfErr.Kind)
	assert.Equal(t, "svc-missing", nfErr.Key)
	assert.Equal(t, 5, f.ledger.stock["part-filter"])
}

func TestCreateOrder_PartNotFound(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.PartIDs = []string{"part-missing"}

	_, err := f.svc.CreateOrder(context.Background(), req)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "part", nfErr.Kind)
	assert.Empty(t, f.store.created)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	f.ledger.stock["part-pads"] = 0

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "part-pads", stockErr.PartID)

	// The filter reservation made before the failure is rolled back.
	assert.Equal(t, 5, f.ledger.stock["part-filter"])
	assert.Equal(t, 1, f.ledger.restored["part-filter"])
	assert.Empty(t, f.store.created)
}

func TestCreateOrder_StoreFailureRestoresReservations(t *testing.T) {
	f := newFixture()
	f.store.createErr = errors.New("connection reset")

	_, err := f.svc.CreateOrder(context.Background(), validRequest())

	require.Error(t, err)
	assert.Equal(t, 5, f.ledger.stock["part-filter"])
	assert.Equal(t, 5, f.ledger.stock["part-pads"])
}

func TestTransitionStatus_FullLifecycle(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	for _, target := range []Status{
		StatusInDiagnosis, StatusAwaitingApproval, StatusInExecution, StatusCompleted, StatusDelivered,
	} {
		got, err := f.svc.TransitionStatus(context.Background(), o.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, got.Status)
	}

	stored := f.store.orders[o.ID]
	assert.Equal(t, StatusDelivered, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	require.NotNil(t, stored.DeliveredAt)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestTransitionStatus_OrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.TransitionStatus(context.Background(), "missing", StatusInDiagnosis)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "order", nfErr.Kind)
}

func TestTransitionStatus_InvalidTarget(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), o.ID, StatusCompleted)

	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusReceived, trErr.From)
	assert.Equal(t, StatusReceived, f.store.orders[o.ID].Status)
	assert.Empty(t, f.store.updated)
}

func TestTransitionStatus_CancelledTargetRejected(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(context.Background(), o.ID, StatusCancelled)

	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
}

func TestTransitionStatus_NotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp timeout")
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	for _, target := range []Status{StatusInDiagnosis, StatusAwaitingApproval, StatusInExecution} {
		_, err = f.svc.TransitionStatus(context.Background(), o.ID, target)
		require.NoError(t, err)
	}

	got, err := f.svc.TransitionStatus(context.Background(), o.ID, StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, StatusCompleted, f.store.orders[o.ID].Status)
}

func TestTransitionStatus_NotifiesOnlyOnCompletion(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	for _, target := range []Status{StatusInDiagnosis, StatusAwaitingApproval, StatusInExecution} {
		_, err = f.svc.TransitionStatus(context.Background(), o.ID, target)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, f.notifier.calls)

	_, err = f.svc.TransitionStatus(context.Background(), o.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.calls)

	_, err = f.svc.TransitionStatus(context.Background(), o.ID, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestGetOrder_ResolvesCustomerAndVehicle(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	detail, err := f.svc.GetOrder(context.Background(), o.ID)

	require.NoError(t, err)
	assert.Equal(t, o.ID, detail.Order.ID)
	assert.Equal(t, "Marina Lopes", detail.Customer.Name)
	assert.Equal(t, "ABC1D23", detail.Vehicle.Plate)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetOrder(context.Background(), "missing")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "order", nfErr.Kind)
}

func TestListOrders(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)

	all, err := f.svc.ListOrders(context.Background())

	require.NoError(t, err)
	assert.Len(t, all, 1)
}
