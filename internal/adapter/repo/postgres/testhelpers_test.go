package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// Hand-rolled fakes for the narrow pool surface the repos use. Embedding
// the pgx interfaces keeps the fakes small; calling an unstubbed method
// panics, which is the right failure mode in a test.

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeRows struct {
	pgx.Rows
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		assign(d, row[i])
	}
	return nil
}

func assign(dest, val any) {
	switch d := dest.(type) {
	case *int64:
		*d = val.(int64)
	case *string:
		*d = val.(string)
	case **string:
		if val == nil {
			*d = nil
		} else {
			s := val.(string)
			*d = &s
		}
	case **int64:
		if val == nil {
			*d = nil
		} else {
			n := val.(int64)
			*d = &n
		}
	case **float64:
		if val == nil {
			*d = nil
		} else {
			f := val.(float64)
			*d = &f
		}
	case *float64:
		*d = val.(float64)
	case *domain.JobStatus:
		*d = val.(domain.JobStatus)
	case *domain.InterviewStatus:
		*d = val.(domain.InterviewStatus)
	case *time.Time:
		*d = val.(time.Time)
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

type fakeTx struct {
	pgx.Tx
	queryRow func(sql string, args ...any) pgx.Row
	exec     func(sql string, args ...any) (pgconn.CommandTag, error)
	commits  int
	rollback int
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return t.queryRow(sql, args...)
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.exec(sql, args...)
}

func (t *fakeTx) Commit(context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rollback++; return nil }

type fakePool struct {
	execFn     func(sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(sql string, args ...any) pgx.Row
	queryFn    func(sql string, args ...any) (pgx.Rows, error)
	beginFn    func() (pgx.Tx, error)
}

func (p *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.execFn(sql, args...)
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return p.queryRowFn(sql, args...)
}

func (p *fakePool) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.queryFn(sql, args...)
}

func (p *fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return p.beginFn()
}
