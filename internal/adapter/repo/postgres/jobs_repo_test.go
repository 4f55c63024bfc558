package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

func TestJobRepo_Create(t *testing.T) {
	t.Parallel()
	var gotArgs []any
	pool := &fakePool{
		queryRowFn: func(_ string, args ...any) pgx.Row {
			gotArgs = args
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 5
				return nil
			}}
		},
	}
	repo := postgres.NewJobRepo(pool)

	id, err := repo.Create(context.Background(), domain.Job{Title: "Backend Engineer"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	// Status defaults to open when unset.
	assert.Contains(t, gotArgs, domain.JobOpen)
}

func TestJobRepo_Create_Error(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryRowFn: func(string, ...any) pgx.Row {
			return fakeRow{scan: func(...any) error { return assert.AnError }}
		},
	}
	repo := postgres.NewJobRepo(pool)
	_, err := repo.Create(context.Background(), domain.Job{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=jobs.create")
}

func TestJobRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryRowFn: func(string, ...any) pgx.Row {
			return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := postgres.NewJobRepo(pool)
	_, err := repo.Get(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobRepo_ListOpen(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryFn: func(_ string, args ...any) (pgx.Rows, error) {
			assert.Equal(t, []any{domain.JobOpen}, args)
			return &fakeRows{rows: [][]any{
				{int64(1), "Backend Engineer", "desc", "criteria", domain.JobOpen, nowUTC()},
			}}, nil
		},
	}
	repo := postgres.NewJobRepo(pool)

	jobs, err := repo.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, domain.JobOpen, jobs[0].Status)
}
