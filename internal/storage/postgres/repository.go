package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dialect renders list and update statements with $n placeholders.
var dialect = goqu.Dialect("postgres")

// Repository implements places.Store with PostgreSQL backend
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ places.Store = (*Repository)(nil)

// NewRepository creates a new PostgreSQL-backed repository
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *Repository) Places() places.PlaceStore {
	return &PlaceRepository{db: r.queryer()}
}

func (r *Repository) Accepts() places.AcceptStore {
	return &AcceptRepository{childTable: acceptsTable(r.queryer())}
}

func (r *Repository) Ratings() places.RatingStore {
	return &RatingRepository{childTable: ratingsTable(r.queryer())}
}

func (r *Repository) Images() places.ImageStore {
	return &ImageRepository{childTable: imagesTable(r.queryer())}
}

// WithTx executes fn within a database transaction. Nested calls join the
// outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, places.Store) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, &Repository{pool: r.pool, tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// record observes query latency. Not-found is an answer, not a failure.
func record(op string, start time.Time, err error) {
	if errors.Is(err, places.ErrNotFound) {
		err = nil
	}
	metrics.RecordQuery(op, start, err)
}
