// Package catalog holds the workshop's billable service and part catalogs.
// Catalog prices are the source for line-item price snapshots: an order
// copies the price at add-time and is unaffected by later catalog changes.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups.
var (
	ErrServiceNotFound = errors.New("service not found")
	ErrPartNotFound    = errors.New("part not found")
)

// Service is a catalog entry for billable labor (diagnosis, alignment, ...).
type Service struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
}

// Part is a catalog entry for a physical part. Stock is the authoritative
// on-hand counter, mutated only through the inventory ledger.
type Part struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

// ServiceRepository provides lookup and registration of catalog services.
type ServiceRepository interface {
	FindByID(ctx context.Context, id string) (*Service, error)
	List(ctx context.Context) ([]Service, error)
	Create(ctx context.Context, s *Service) error
}

// PartRepository provides lookup and registration of catalog parts.
type PartRepository interface {
	FindByID(ctx context.Context, id string) (*Part, error)
	List(ctx context.Context) ([]Part, error)
	Create(ctx context.Context, p *Part) error
}
