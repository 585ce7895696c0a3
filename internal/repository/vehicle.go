package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

const (
	vehicleColumns = `id, plate, brand, model, year, COALESCE(customer_id, ''), created_at`

	findVehicleByPlateSQL = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE plate = $1`
	findVehicleByIDSQL    = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	listVehiclesSQL       = `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate`
	createVehicleSQL      = `INSERT INTO vehicles (id, plate, brand, model, year, customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
)

var _ vehicle.Directory = (*VehicleRepository)(nil)

// VehicleRepository implements vehicle.Directory backed by PostgreSQL.
type VehicleRepository struct {
	pool *pgxpool.Pool
}

// NewVehicleRepository returns a VehicleRepository that uses the given pool.
func NewVehicleRepository(pool *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

// FindByPlate returns the vehicle with the given plate, or vehicle.ErrNotFound.
func (r *VehicleRepository) FindByPlate(ctx context.Context, plate string) (*vehicle.Vehicle, error) {
	return r.findOne(ctx, findVehicleByPlateSQL, plate)
}

// FindByID returns the vehicle with the given id, or vehicle.ErrNotFound.
func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	return r.findOne(ctx, findVehicleByIDSQL, id)
}

// List returns all vehicles ordered by plate.
func (r *VehicleRepository) List(ctx context.Context) ([]vehicle.Vehicle, error) {
	rows, err := r.pool.Query(ctx, listVehiclesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	return pgx.CollectRows(rows, scanVehicle)
}

// Create persists a new vehicle. An empty CustomerID is stored as NULL.
func (r *VehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	_, err := r.pool.Exec(ctx, createVehicleSQL,
		v.ID, v.Plate, v.Brand, v.Model, v.Year, v.CustomerID, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating vehicle %q: %w", v.ID, err)
	}
	return nil
}

func (r *VehicleRepository) findOne(ctx context.Context, sql, arg string) (*vehicle.Vehicle, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying vehicle %q: %w", arg, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVehicle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vehicle.ErrNotFound
		}
		return nil, fmt.Errorf("querying vehicle %q: %w", arg, err)
	}
	return &v, nil
}

func scanVehicle(row pgx.CollectableRow) (vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	err := row.Scan(&v.ID, &v.Plate, &v.Brand, &v.Model, &v.Year, &v.CustomerID, &v.CreatedAt)
	return v, err
}
