package postgres_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

func TestCandidateRepo_CreateWithInterview(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{}
	tx.queryRow = func(sql string, args ...any) pgx.Row {
		switch {
		case strings.Contains(sql, "INSERT INTO candidates"):
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 42
				return nil
			}}
		case strings.Contains(sql, "INSERT INTO interviews"):
			// The paired interview row must start pending.
			assert.Equal(t, int64(42), args[0])
			assert.Equal(t, domain.InterviewPending, args[1])
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 7
				return nil
			}}
		default:
			t.Fatalf("unexpected sql: %s", sql)
			return nil
		}
	}
	pool := &fakePool{beginFn: func() (pgx.Tx, error) { return tx, nil }}
	repo := postgres.NewCandidateRepo(pool)

	c, iv, err := repo.CreateWithInterview(context.Background(), domain.Candidate{
		Name:  "Jane Doe",
		Email: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.Equal(t, int64(7), iv.ID)
	assert.Equal(t, int64(42), iv.CandidateID)
	assert.Equal(t, domain.InterviewPending, iv.Status)
	assert.Equal(t, 1, tx.commits)
}

func TestCandidateRepo_CreateWithInterview_RollsBackOnError(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{}
	tx.queryRow = func(sql string, _ ...any) pgx.Row {
		if strings.Contains(sql, "INSERT INTO candidates") {
			return fakeRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 42
				return nil
			}}
		}
		return fakeRow{scan: func(...any) error { return assert.AnError }}
	}
	pool := &fakePool{beginFn: func() (pgx.Tx, error) { return tx, nil }}
	repo := postgres.NewCandidateRepo(pool)

	_, _, err := repo.CreateWithInterview(context.Background(), domain.Candidate{Name: "x"})
	require.Error(t, err)
	assert.Zero(t, tx.commits)
	assert.Equal(t, 1, tx.rollback)
}

func TestCandidateRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryRowFn: func(string, ...any) pgx.Row {
			return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := postgres.NewCandidateRepo(pool)
	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCandidateRepo_ListOverviews(t *testing.T) {
	t.Parallel()
	now := nowUTC()
	pool := &fakePool{
		queryFn: func(string, ...any) (pgx.Rows, error) {
			return &fakeRows{rows: [][]any{
				{int64(1), "Jane", "jane@example.com", "cv.pdf", nil, now, int64(11), domain.InterviewCompleted, 8.5},
				{int64(2), "John", "john@example.com", "cv2.pdf", int64(5), now, int64(12), domain.InterviewPending, nil},
			}}, nil
		},
	}
	repo := postgres.NewCandidateRepo(pool)

	out, err := repo.ListOverviews(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Jane", out[0].Candidate.Name)
	assert.Equal(t, domain.InterviewCompleted, out[0].InterviewStatus)
	require.NotNil(t, out[0].Score)
	assert.Equal(t, 8.5, *out[0].Score)
	require.NotNil(t, out[1].Candidate.JobID)
	assert.Equal(t, int64(5), *out[1].Candidate.JobID)
	assert.Nil(t, out[1].Score)
}
