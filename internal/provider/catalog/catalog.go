// Package catalog is a provider backed by the inventory tables in Postgres.
// It answers flight, hotel and activity searches and holds reservations by
// decrementing item capacity.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
	"github.com/nekogravitycat/trip-orchestrator/internal/constraint"
	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

const (
	Name        = "catalog"
	searchLimit = 100
)

// Catalog borrows its pool. Close retires the handle; the pool itself is
// closed by whoever opened it.
type Catalog struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

func New(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) Name() string { return Name }

func (c *Catalog) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Catalog) checkOpen() error {
	if c.closed.Load() {
		return provider.Errorf(Name, provider.KindUnavailable, "catalog closed")
	}
	return nil
}

// record is one inventory row as scanned.
type record struct {
	ID          string
	Kind        string
	Name        string
	Price       string
	Location    string
	Tags        []string
	DurationMin *int32
	WindowStart *int32
	WindowEnd   *int32
	Payload     []byte
}

func (r record) candidate() (candidate.Candidate, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return candidate.Candidate{}, fmt.Errorf("item %s: bad price %q: %w", r.ID, r.Price, err)
	}
	tags, err := constraint.NewTagSet(r.Tags...)
	if err != nil {
		return candidate.Candidate{}, fmt.Errorf("item %s: %w", r.ID, err)
	}

	c := candidate.Candidate{
		ID:       r.ID,
		Kind:     candidate.Kind(r.Kind),
		Provider: Name,
		Name:     r.Name,
		Price:    price,
		Location: r.Location,
		Tags:     tags,
		Payload:  r.Payload,
	}
	if r.DurationMin != nil {
		c.Duration = time.Duration(*r.DurationMin) * time.Minute
	}
	if r.WindowStart != nil && r.WindowEnd != nil {
		c.Window = &candidate.TimeWindow{
			Start: time.Duration(*r.WindowStart) * time.Minute,
			End:   time.Duration(*r.WindowEnd) * time.Minute,
		}
	}
	return c, nil
}

func searchQuery(crit provider.Criteria) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	q := psql.Select(
		"id", "kind", "name", "price::text", "location", "tags",
		"duration_minutes", "window_start_minutes", "window_end_minutes", "payload",
	).
		From("public.inventory_items").
		Where(squirrel.Eq{"kind": string(crit.Kind)}).
		Where(squirrel.Eq{"destination": crit.Destination}).
		Where(squirrel.GtOrEq{"capacity": max(crit.Guests, 1)})

	if crit.Kind == candidate.KindFlight && crit.Origin != "" {
		q = q.Where(squirrel.Eq{"origin": crit.Origin})
	}
	if crit.BudgetHint.IsPositive() {
		q = q.Where(squirrel.LtOrEq{"price": crit.BudgetHint.String()})
	}
	if crit.Kind == candidate.KindActivity && len(crit.Categories) > 0 {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"category": nil},
			squirrel.Eq{"category": crit.Categories},
		})
	}
	return q.OrderBy("price ASC", "id ASC").Limit(searchLimit)
}

func (c *Catalog) Search(ctx context.Context, crit provider.Criteria) ([]candidate.Candidate, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	query, args, err := searchQuery(crit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search inventory query failed: %w", err)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search inventory failed: %w", err)
	}
	defer rows.Close()

	var out []candidate.Candidate
	for rows.Next() {
		var r record
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.Name, &r.Price, &r.Location, &r.Tags,
			&r.DurationMin, &r.WindowStart, &r.WindowEnd, &r.Payload,
		); err != nil {
			return nil, fmt.Errorf("scan inventory item failed: %w", err)
		}
		cand, err := r.candidate()
		if err != nil {
			return nil, &provider.ProviderError{Provider: Name, Kind: provider.KindInvalidResponse, Err: err}
		}
		cand.Guests = crit.Guests
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory failed: %w", err)
	}
	return out, nil
}

// Reserve records a reservation and takes capacity for the quoted party in
// the same transaction. Unknown items are invalid_response, sold-out items
// unavailable.
func (c *Catalog) Reserve(ctx context.Context, cand candidate.Candidate) (provider.Reservation, error) {
	if err := c.checkOpen(); err != nil {
		return provider.Reservation{}, err
	}
	units := cand.Units()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return provider.Reservation{}, fmt.Errorf("begin reservation failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reservations").
		Columns("item_id", "units", "confirmation").
		Values(cand.ID, units, squirrel.Expr("'CONF-' || ?::text || '-' || nextval('public.reservation_seq')", cand.ID)).
		Suffix("RETURNING id::text, confirmation").
		ToSql()
	if err != nil {
		return provider.Reservation{}, fmt.Errorf("build insert reservation query failed: %w", err)
	}

	var res provider.Reservation
	if err := tx.QueryRow(ctx, query, args...).Scan(&res.Reference, &res.Confirmation); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return provider.Reservation{}, provider.Errorf(Name, provider.KindInvalidResponse, "unknown item %q", cand.ID)
		}
		return provider.Reservation{}, fmt.Errorf("insert reservation failed: %w", err)
	}

	query, args, err = psql.Update("public.inventory_items").
		Set("capacity", squirrel.Expr("capacity - ?", units)).
		Where(squirrel.Eq{"id": cand.ID}).
		Where(squirrel.GtOrEq{"capacity": units}).
		ToSql()
	if err != nil {
		return provider.Reservation{}, fmt.Errorf("build take capacity query failed: %w", err)
	}
	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return provider.Reservation{}, fmt.Errorf("take capacity failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return provider.Reservation{}, provider.Errorf(Name, provider.KindUnavailable, "item %q has no room for %d", cand.ID, units)
	}

	if err := tx.Commit(ctx); err != nil {
		return provider.Reservation{}, fmt.Errorf("commit reservation failed: %w", err)
	}
	return res, nil
}

// Cancel releases an active reservation and returns its capacity.
func (c *Catalog) Cancel(ctx context.Context, reference string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if _, err := uuid.Parse(reference); err != nil {
		return provider.Errorf(Name, provider.KindInvalidResponse, "malformed reservation reference %q", reference)
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cancellation failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.reservations").
		Set("status", "cancelled").
		Set("cancelled_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": reference}).
		Where(squirrel.Eq{"status": "active"}).
		Suffix("RETURNING item_id, units").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cancel reservation query failed: %w", err)
	}

	var itemID string
	var units int
	if err := tx.QueryRow(ctx, query, args...).Scan(&itemID, &units); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return provider.Errorf(Name, provider.KindInvalidResponse, "no active reservation %q", reference)
		}
		return fmt.Errorf("cancel reservation failed: %w", err)
	}

	query, args, err = psql.Update("public.inventory_items").
		Set("capacity", squirrel.Expr("capacity + ?", units)).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release capacity query failed: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("release capacity failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cancellation failed: %w", err)
	}
	return nil
}
