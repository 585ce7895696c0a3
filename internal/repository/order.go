package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dorneles/workshop-api/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, vehicle_id, status, total, created_at, completed_at, delivered_at`

	findOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersSQL    = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at`
	findActiveSQL    = `SELECT ` + orderColumns + ` FROM orders
		WHERE customer_id = $1 AND vehicle_id = $2 AND status != ALL($3)`

	insertOrderSQL = `INSERT INTO orders (id, customer_id, vehicle_id, status, total, created_at, completed_at, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	updateOrderSQL = `UPDATE orders SET status = $2, total = $3, completed_at = $4, delivered_at = $5 WHERE id = $1`

	insertServiceItemSQL = `INSERT INTO order_service_items (id, order_id, service_id, name, quantity, unit_price, line_total, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertPartItemSQL = `INSERT INTO order_part_items (id, order_id, part_id, name, quantity, unit_price, line_total, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	deleteServiceItemsSQL = `DELETE FROM order_service_items WHERE order_id = $1`
	deletePartItemsSQL    = `DELETE FROM order_part_items WHERE order_id = $1`

	serviceItemsByOrderSQL = `SELECT id, order_id, service_id, name, quantity, unit_price, line_total
		FROM order_service_items WHERE order_id = $1 ORDER BY position`
	partItemsByOrderSQL = `SELECT id, order_id, part_id, name, quantity, unit_price, line_total
		FROM order_part_items WHERE order_id = $1 ORDER BY position`

	allServiceItemsSQL = `SELECT id, order_id, service_id, name, quantity, unit_price, line_total
		FROM order_service_items ORDER BY order_id, position`
	allPartItemsSQL = `SELECT id, order_id, part_id, name, quantity, unit_price, line_total
		FROM order_part_items ORDER BY order_id, position`

	// Serializes creation per (customer, vehicle) for the duration of the
	// transaction. The active-order check below runs under this lock.
	advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
)

var _ order.Store = (*OrderRepository)(nil)

// OrderRepository implements order.Store backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order with its line items. The whole write runs in
// one transaction under an advisory lock keyed on (customer, vehicle): the
// active-order check and the insert are a single atomic unit, so two
// concurrent creations for the same pair cannot both pass the check.
func (r *OrderRepository) Create(ctx context.Context, o *order.ServiceOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockKey := o.CustomerID + ":" + o.VehicleID
	if _, err := tx.Exec(ctx, advisoryLockSQL, lockKey); err != nil {
		return fmt.Errorf("acquiring creation lock: %w", err)
	}

	active, err := findActiveTx(ctx, tx, o.CustomerID, o.VehicleID, order.TerminalStatuses())
	if err != nil {
		return err
	}
	if active != nil {
		return &order.ActiveOrderConflictError{Status: active.Status}
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, o.VehicleID, string(o.Status), o.Total,
		o.CreatedAt, o.CompletedAt, o.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// Update rewrites the order row and its line items.
func (r *OrderRepository) Update(ctx context.Context, o *order.ServiceOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), o.Total, o.CompletedAt, o.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if _, err := tx.Exec(ctx, deleteServiceItemsSQL, o.ID); err != nil {
		return fmt.Errorf("clearing service items of %q: %w", o.ID, err)
	}
	if _, err := tx.Exec(ctx, deletePartItemsSQL, o.ID); err != nil {
		return fmt.Errorf("clearing part items of %q: %w", o.ID, err)
	}
	if err := insertItems(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update order: %w", err)
	}
	return nil
}

// FindByID loads an order with its line items, or order.ErrNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.ServiceOrder, error) {
	rows, err := r.pool.Query(ctx, findOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("querying order %q: %w", id, err)
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindAll loads every order with its line items.
func (r *OrderRepository) FindAll(ctx context.Context) ([]*order.ServiceOrder, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	collected, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	byID := make(map[string]*order.ServiceOrder, len(collected))
	orders := make([]*order.ServiceOrder, len(collected))
	for i := range collected {
		orders[i] = &collected[i]
		byID[collected[i].ID] = orders[i]
	}

	svcRows, err := r.pool.Query(ctx, allServiceItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing service items: %w", err)
	}
	svcItems, err := pgx.CollectRows(svcRows, scanServiceItem)
	if err != nil {
		return nil, fmt.Errorf("listing service items: %w", err)
	}
	for _, it := range svcItems {
		if o, ok := byID[it.orderID]; ok {
			o.ServiceLines = append(o.ServiceLines, it.line)
		}
	}

	partRows, err := r.pool.Query(ctx, allPartItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing part items: %w", err)
	}
	partItems, err := pgx.CollectRows(partRows, scanPartItem)
	if err != nil {
		return nil, fmt.Errorf("listing part items: %w", err)
	}
	for _, it := range partItems {
		if o, ok := byID[it.orderID]; ok {
			o.PartLines = append(o.PartLines, it.line)
		}
	}

	return orders, nil
}

// FindActive returns the order for the pair whose status is outside
// excluded, or nil when there is none.
func (r *OrderRepository) FindActive(ctx context.Context, customerID, vehicleID string, excluded []order.Status) (*order.ServiceOrder, error) {
	return findActiveTx(ctx, r.pool, customerID, vehicleID, excluded)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func findActiveTx(ctx context.Context, q querier, customerID, vehicleID string, excluded []order.Status) (*order.ServiceOrder, error) {
	statuses := make([]string, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	rows, err := q.Query(ctx, findActiveSQL, customerID, vehicleID, statuses)
	if err != nil {
		return nil, fmt.Errorf("querying active order: %w", err)
	}

	o, err := pgx.CollectOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying active order: %w", err)
	}
	return &o, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, o *order.ServiceOrder) error {
	for i, line := range o.ServiceLines {
		_, err := tx.Exec(ctx, insertServiceItemSQL,
			line.ID, o.ID, line.ServiceID, line.Name,
			line.Quantity, line.UnitPrice, line.LineTotal, i,
		)
		if err != nil {
			return fmt.Errorf("inserting service item %q: %w", line.ID, err)
		}
	}
	for i, line := range o.PartLines {
		_, err := tx.Exec(ctx, insertPartItemSQL,
			line.ID, o.ID, line.PartID, line.Name,
			line.Quantity, line.UnitPrice, line.LineTotal, i,
		)
		if err != nil {
			return fmt.Errorf("inserting part item %q: %w", line.ID, err)
		}
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *order.ServiceOrder) error {
	svcRows, err := r.pool.Query(ctx, serviceItemsByOrderSQL, o.ID)
	if err != nil {
		return fmt.Errorf("loading service items of %q: %w", o.ID, err)
	}
	svcItems, err := pgx.CollectRows(svcRows, scanServiceItem)
	if err != nil {
		return fmt.Errorf("loading service items of %q: %w", o.ID, err)
	}
	for _, it := range svcItems {
		o.ServiceLines = append(o.ServiceLines, it.line)
	}

	partRows, err := r.pool.Query(ctx, partItemsByOrderSQL, o.ID)
	if err != nil {
		return fmt.Errorf("loading part items of %q: %w", o.ID, err)
	}
	partItems, err := pgx.CollectRows(partRows, scanPartItem)
	if err != nil {
		return fmt.Errorf("loading part items of %q: %w", o.ID, err)
	}
	for _, it := range partItems {
		o.PartLines = append(o.PartLines, it.line)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.ServiceOrder, error) {
	var (
		o      order.ServiceOrder
		status string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.VehicleID, &status, &o.Total,
		&o.CreatedAt, &o.CompletedAt, &o.DeliveredAt,
	)
	o.Status = order.Status(status)
	return o, err
}

type serviceItemRow struct {
	orderID string
	line    order.ServiceLine
}

func scanServiceItem(row pgx.CollectableRow) (serviceItemRow, error) {
	var it serviceItemRow
	err := row.Scan(
		&it.line.ID, &it.orderID, &it.line.ServiceID, &it.line.Name,
		&it.line.Quantity, &it.line.UnitPrice, &it.line.LineTotal,
	)
	return it, err
}

type partItemRow struct {
	orderID string
	line    order.PartLine
}

func scanPartItem(row pgx.CollectableRow) (partItemRow, error) {
	var it partItemRow
	err := row.Scan(
		&it.line.ID, &it.orderID, &it.line.PartID, &it.line.Name,
		&it.line.Quantity, &it.line.UnitPrice, &it.line.LineTotal,
	)
	return it, err
}
