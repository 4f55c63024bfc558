// Package postgres implements the repository ports on PostgreSQL.
//
// Repositories take a minimal pool interface so tests can substitute
// mocks without a live database. SQL lives next to the method that runs
// it; every statement is traced.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// scanErr maps row-scan errors into the domain taxonomy.
func scanErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("op=%s: %w", op, err)
}
