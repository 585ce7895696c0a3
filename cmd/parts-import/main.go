// Command parts-import bulk-loads the parts catalog from gzipped supplier
// feeds.
//
// Each feed is a gzip-compressed file with one "code;name;price" line per
// part. Supplier feeds are noisy, so a part number is only trusted when at
// least two independent feeds list it. The cross-check uses one bloom
// filter per feed: pass 1 builds the filters, pass 2 re-streams each feed
// and keeps codes that another feed's filter also contains.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dorneles/workshop-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// feedEntry is one candidate part parsed from a supplier feed line.
type feedEntry struct {
	code  string
	name  string
	price decimal.Decimal
}

// feedResult holds the candidates of one feed after pass 2, with a bitmask
// of the feeds each code was confirmed against.
type feedResult struct {
	entries map[string]feedEntry
	seenIn  map[string]uint
}

func main() {
	var (
		databaseURL string
		feedArg     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&feedArg, "feeds", "", "comma-separated list of gzipped supplier feed files")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	feeds := strings.Split(feedArg, ",")
	if feedArg == "" || len(feeds) < 2 {
		slog.Error("at least two feed files are required: set --feeds")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, feeds); err != nil {
		slog.Error("parts import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("parts import completed successfully")
}

func run(ctx context.Context, databaseURL string, feeds []string) error {
	for _, f := range feeds {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check feed %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("feeds", len(feeds)))

	filters, err := buildFilters(ctx, feeds)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: cross-checking part codes")

	trusted, err := crossCheck(ctx, feeds, filters)
	if err != nil {
		return errors.Wrap(err, "cross-check feeds")
	}

	slog.Info("trusted parts found", slog.Int("count", len(trusted)))

	if len(trusted) == 0 {
		slog.Info("no parts to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeParts(ctx, pool, trusted)
}

// buildFilters creates one bloom filter per feed, concurrently.
func buildFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var count uint64

			err := streamFeed(ctx, feed, func(e feedEntry) {
				filter.AddString(e.code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("feed", i+1), slog.Uint64("codes", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "build filter for feed %d", i+1)
			}

			slog.Info("pass 1 complete", slog.Int("feed", i+1), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// crossCheck re-streams each feed and keeps codes confirmed by at least one
// OTHER feed's bloom filter. The earliest feed listing a code wins its name
// and price.
func crossCheck(ctx context.Context, feeds []string, filters []*bloom.BloomFilter) ([]feedEntry, error) {
	results := make([]feedResult, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			res := feedResult{
				entries: make(map[string]feedEntry),
				seenIn:  make(map[string]uint),
			}
			feedBit := uint(1) << uint(i)

			err := streamFeed(ctx, feed, func(e feedEntry) {
				for j, f := range filters {
					if j == i {
						continue
					}
					if f.TestString(e.code) {
						if _, ok := res.entries[e.code]; !ok {
							res.entries[e.code] = e
						}
						res.seenIn[e.code] |= feedBit | uint(1)<<uint(j)
						break
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "cross-check feed %d", i+1)
			}

			slog.Info("pass 2 complete", slog.Int("feed", i+1), slog.Int("candidates", len(res.entries)))
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge: lowest feed index wins the entry; masks are OR-ed so a code
	// needs confirmations from 2+ distinct feeds.
	merged := make(map[string]feedEntry)
	masks := make(map[string]uint)
	for _, res := range results {
		for code, e := range res.entries {
			if _, ok := merged[code]; !ok {
				merged[code] = e
			}
			masks[code] |= res.seenIn[code]
		}
	}

	trusted := make([]feedEntry, 0, len(merged))
	for code, e := range merged {
		if bits.OnesCount(masks[code]) >= 2 {
			trusted = append(trusted, e)
		}
	}
	return trusted, nil
}

// streamFeed opens a gzipped feed and calls fn for each parseable line.
func streamFeed(ctx context.Context, path string, fn func(feedEntry)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields := strings.SplitN(scanner.Text(), ";", 3)
		if len(fields) != 3 {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}
		code := strings.TrimSpace(fields[0])
		if code == "" {
			continue
		}
		fn(feedEntry{code: code, name: strings.TrimSpace(fields[1]), price: price})
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeParts upserts all trusted parts. Imported parts start with zero
// stock; stock arrives through the replenishment endpoint.
func writeParts(ctx context.Context, pool *pgxpool.Pool, parts []feedEntry) error {
	slog.Info("writing parts to database", slog.Int("count", len(parts)))

	const upsertSQL = `INSERT INTO parts (id, name, price, stock)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (id) DO UPDATE SET name = $2, price = $3`

	for i, p := range parts {
		if _, err := pool.Exec(ctx, upsertSQL, p.code, p.name, p.price); err != nil {
			return errors.Wrapf(err, "upsert part %s", p.code)
		}
		if (i+1)%500 == 0 || i+1 == len(parts) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(parts)))
		}
	}
	return nil
}
