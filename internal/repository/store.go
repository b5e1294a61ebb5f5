package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx a query method needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements Querier against any DBTX.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given connection or
// transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to an open transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Tx is an open database transaction. Queries() returns a Querier whose
// statements participate in it. Rollback after Commit is a no-op.
type Tx interface {
	Queries() Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the full persistence surface handed to services: every query
// plus the ability to open a transaction.
type Store interface {
	Querier
	BeginTx(ctx context.Context) (Tx, error)
}

// SQLStore implements Store on a pgx connection pool.
type SQLStore struct {
	*Queries
	pool *pgxpool.Pool
}

// Compile-time check that SQLStore implements Store.
var _ Store = (*SQLStore)(nil)

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{
		Queries: New(pool),
		pool:    pool,
	}
}

// BeginTx opens a database transaction.
func (s *SQLStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &sqlTx{tx: tx, queries: s.Queries.WithTx(tx)}, nil
}

type sqlTx struct {
	tx      pgx.Tx
	queries *Queries
}

func (t *sqlTx) Queries() Querier {
	return t.queries
}

func (t *sqlTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
