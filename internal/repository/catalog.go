package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/inventory"
)

const (
	findServiceByIDSQL = `SELECT id, name, description, price FROM services WHERE id = $1`
	listServicesSQL    = `SELECT id, name, description, price FROM services ORDER BY name`
	createServiceSQL   = `INSERT INTO services (id, name, description, price) VALUES ($1, $2, $3, $4)`

	findPartByIDSQL = `SELECT id, name, price, stock FROM parts WHERE id = $1`
	listPartsSQL    = `SELECT id, name, price, stock FROM parts ORDER BY name`
	createPartSQL   = `INSERT INTO parts (id, name, price, stock) VALUES ($1, $2, $3, $4)`

	// The availability check and the decrement are one statement, so stock
	// can never go negative under concurrent reservations.
	reserveStockSQL = `UPDATE parts SET stock = stock - $2 WHERE id = $1 AND stock >= $2`
	restoreStockSQL = `UPDATE parts SET stock = stock + $2 WHERE id = $1`
)

var _ catalog.ServiceRepository = (*ServiceRepository)(nil)

// ServiceRepository implements catalog.ServiceRepository backed by PostgreSQL.
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a ServiceRepository that uses the given pool.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// FindByID returns a catalog service, or catalog.ErrServiceNotFound.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*catalog.Service, error) {
	rows, err := r.pool.Query(ctx, findServiceByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying service %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, fmt.Errorf("querying service %q: %w", id, err)
	}
	return &s, nil
}

// List returns all catalog services ordered by name.
func (r *ServiceRepository) List(ctx context.Context) ([]catalog.Service, error) {
	rows, err := r.pool.Query(ctx, listServicesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return pgx.CollectRows(rows, scanService)
}

// Create persists a new catalog service.
func (r *ServiceRepository) Create(ctx context.Context, s *catalog.Service) error {
	_, err := r.pool.Exec(ctx, createServiceSQL, s.ID, s.Name, s.Description, s.Price)
	if err != nil {
		return fmt.Errorf("creating service %q: %w", s.ID, err)
	}
	return nil
}

func scanService(row pgx.CollectableRow) (catalog.Service, error) {
	var s catalog.Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price)
	return s, err
}

var (
	_ catalog.PartRepository = (*PartRepository)(nil)
	_ inventory.Ledger       = (*PartRepository)(nil)
)

// PartRepository implements catalog.PartRepository and inventory.Ledger on
// the same table: the parts catalog owns the stock counter.
type PartRepository struct {
	pool *pgxpool.Pool
}

// NewPartRepository returns a PartRepository that uses the given pool.
func NewPartRepository(pool *pgxpool.Pool) *PartRepository {
	return &PartRepository{pool: pool}
}

// FindByID returns a catalog part, or catalog.ErrPartNotFound.
func (r *PartRepository) FindByID(ctx context.Context, id string) (*catalog.Part, error) {
	rows, err := r.pool.Query(ctx, findPartByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying part %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrPartNotFound
		}
		return nil, fmt.Errorf("querying part %q: %w", id, err)
	}
	return &p, nil
}

// List returns all catalog parts ordered by name.
func (r *PartRepository) List(ctx context.Context) ([]catalog.Part, error) {
	rows, err := r.pool.Query(ctx, listPartsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing parts: %w", err)
	}
	return pgx.CollectRows(rows, scanPart)
}

// Create persists a new catalog part with its initial stock.
func (r *PartRepository) Create(ctx context.Context, p *catalog.Part) error {
	_, err := r.pool.Exec(ctx, createPartSQL, p.ID, p.Name, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("creating part %q: %w", p.ID, err)
	}
	return nil
}

// Reserve decrements the part's stock, failing with
// *inventory.InsufficientStockError when fewer units are available. The
// conditional update also distinguishes a missing part from short stock.
func (r *PartRepository) Reserve(ctx context.Context, partID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, reserveStockSQL, partID, quantity)
	if err != nil {
		return fmt.Errorf("reserving %d of part %q: %w", quantity, partID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, partID); err != nil {
			return err
		}
		return &inventory.InsufficientStockError{PartID: partID, Quantity: quantity}
	}
	return nil
}

// Restore increments the part's stock unconditionally.
func (r *PartRepository) Restore(ctx context.Context, partID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, restoreStockSQL, partID, quantity)
	if err != nil {
		return fmt.Errorf("restoring %d of part %q: %w", quantity, partID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrPartNotFound
	}
	return nil
}

func scanPart(row pgx.CollectableRow) (catalog.Part, error) {
	var p catalog.Part
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	return p, err
}
