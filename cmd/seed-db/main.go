// Command seed-db loads a JSON fixture of customers, vehicles and catalog
// entries into the database. Intended for local development and demos.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dorneles/workshop-api/internal/repository"
)

type fixture struct {
	Customers []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Document string `json:"document"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"customers"`
	Vehicles []struct {
		ID         string `json:"id"`
		Plate      string `json:"plate"`
		Brand      string `json:"brand"`
		Model      string `json:"model"`
		Year       int    `json:"year"`
		CustomerID string `json:"customer_id"`
	} `json:"vehicles"`
	Services []struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
	} `json:"services"`
	Parts []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
		Stock int             `json:"stock"`
	} `json:"parts"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixture.json", "path to seed fixture JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	slog.Info("reading fixture file", slog.String("path", fixtureFile))

	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture file")
	}

	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, "parse fixture JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seed(ctx, pool, fx); err != nil {
		return err
	}

	slog.Info("seeded",
		slog.Int("customers", len(fx.Customers)),
		slog.Int("vehicles", len(fx.Vehicles)),
		slog.Int("services", len(fx.Services)),
		slog.Int("parts", len(fx.Parts)),
	)
	return nil
}

func seed(ctx context.Context, pool *pgxpool.Pool, fx fixture) error {
	for _, c := range fx.Customers {
		_, err := pool.Exec(ctx,
			`INSERT INTO customers (id, name, document, email, phone)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET name = $2, document = $3, email = $4, phone = $5`,
			c.ID, c.Name, c.Document, c.Email, c.Phone,
		)
		if err != nil {
			return errors.Wrapf(err, "seed customer %s", c.ID)
		}
	}

	for _, v := range fx.Vehicles {
		_, err := pool.Exec(ctx,
			`INSERT INTO vehicles (id, plate, brand, model, year, customer_id)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			 ON CONFLICT (id) DO UPDATE SET plate = $2, brand = $3, model = $4, year = $5, customer_id = NULLIF($6, '')`,
			v.ID, v.Plate, v.Brand, v.Model, v.Year, v.CustomerID,
		)
		if err != nil {
			return errors.Wrapf(err, "seed vehicle %s", v.ID)
		}
	}

	for _, s := range fx.Services {
		_, err := pool.Exec(ctx,
			`INSERT INTO services (id, name, description, price)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, description = $3, price = $4`,
			s.ID, s.Name, s.Description, s.Price,
		)
		if err != nil {
			return errors.Wrapf(err, "seed service %s", s.ID)
		}
	}

	for _, p := range fx.Parts {
		_, err := pool.Exec(ctx,
			`INSERT INTO parts (id, name, price, stock)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, price = $3, stock = $4`,
			p.ID, p.Name, p.Price, p.Stock,
		)
		if err != nil {
			return errors.Wrapf(err, "seed part %s", p.ID)
		}
	}

	return nil
}
