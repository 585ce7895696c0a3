package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dorneles/workshop-api/internal/domain/customer"
)

const (
	customerColumns = `id, name, document, email, phone, created_at`

	findCustomerByDocumentSQL = `SELECT ` + customerColumns + ` FROM customers WHERE document = $1`
	findCustomerByIDSQL       = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	listCustomersSQL          = `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	createCustomerSQL         = `INSERT INTO customers (id, name, document, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

var _ customer.Directory = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Directory backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// FindByDocument returns the customer registered with the given document
// number, or customer.ErrNotFound.
func (r *CustomerRepository) FindByDocument(ctx context.Context, document string) (*customer.Customer, error) {
	return r.findOne(ctx, findCustomerByDocumentSQL, document)
}

// FindByID returns the customer with the given id, or customer.ErrNotFound.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	return r.findOne(ctx, findCustomerByIDSQL, id)
}

// List returns all customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// Create persists a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, createCustomerSQL,
		c.ID, c.Name, c.Document, c.Email, c.Phone, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

func (r *CustomerRepository) findOne(ctx context.Context, sql, arg string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying customer %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("querying customer %q: %w", arg, err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.CreatedAt)
	return c, err
}
