package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

func interviewRowValues() []any {
	return []any{
		int64(1), int64(10), "conv-1", nil, "Interviewer: Hello\n\nCandidate: Hi",
		nil, nil, string(domain.InterviewInProgress), time.Now().UTC(),
	}
}

func TestInterviewRepo_Get(t *testing.T) {
	t.Parallel()
	vals := interviewRowValues()
	pool := &fakePool{
		queryRowFn: func(string, ...any) pgx.Row {
			return fakeRow{scan: func(dest ...any) error {
				for i, d := range dest {
					if i == 7 {
						*(d.(*domain.InterviewStatus)) = domain.InterviewStatus(vals[i].(string))
						continue
					}
					assign(d, vals[i])
				}
				return nil
			}}
		},
	}
	repo := postgres.NewInterviewRepo(pool)

	iv, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), iv.ID)
	assert.Equal(t, int64(10), iv.CandidateID)
	require.NotNil(t, iv.ConversationID)
	assert.Equal(t, "conv-1", *iv.ConversationID)
	assert.Equal(t, domain.InterviewInProgress, iv.Status)
	assert.Nil(t, iv.Score)
}

func TestInterviewRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryRowFn: func(string, ...any) pgx.Row {
			return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := postgres.NewInterviewRepo(pool)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByCandidateID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByConversationID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInterviewRepo_SaveTranscript(t *testing.T) {
	t.Parallel()
	var gotSQL string
	var gotArgs []any
	pool := &fakePool{
		execFn: func(sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL, gotArgs = sql, args
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)

	err := repo.SaveTranscript(context.Background(), 7, "Interviewer: Hello\n\nCandidate: Hi")
	require.NoError(t, err)
	assert.Contains(t, gotSQL, "transcript=")
	// Transcript persistence must also advance the state machine.
	assert.Contains(t, gotArgs, domain.InterviewInProgress)
}

func TestInterviewRepo_SaveTranscript_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)
	err := repo.SaveTranscript(context.Background(), 7, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInterviewRepo_SaveSystemPrompt(t *testing.T) {
	t.Parallel()
	var gotSQL string
	var gotArgs []any
	pool := &fakePool{
		execFn: func(sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL, gotArgs = sql, args
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)

	err := repo.SaveSystemPrompt(context.Background(), 10, "You are an interviewer.")
	require.NoError(t, err)
	assert.Contains(t, gotSQL, "system_prompt=")
	assert.Contains(t, gotSQL, "status=")
	// Generating the prompt starts the interview.
	assert.Contains(t, gotArgs, domain.InterviewInProgress)
}

func TestInterviewRepo_SaveSystemPrompt_NotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)
	err := repo.SaveSystemPrompt(context.Background(), 404, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInterviewRepo_SaveEvaluation(t *testing.T) {
	t.Parallel()
	var gotArgs []any
	pool := &fakePool{
		execFn: func(_ string, args ...any) (pgconn.CommandTag, error) {
			gotArgs = args
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)

	err := repo.SaveEvaluation(context.Background(), 7, `{"summary":"ok","score":8}`, 8)
	require.NoError(t, err)
	assert.Contains(t, gotArgs, domain.InterviewCompleted)
	assert.Contains(t, gotArgs, float64(8))
}

func TestInterviewRepo_LinkConversation(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(_ string, args ...any) (pgconn.CommandTag, error) {
			assert.Equal(t, []any{"conv-9", int64(3)}, args)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := postgres.NewInterviewRepo(pool)
	require.NoError(t, repo.LinkConversation(context.Background(), 3, "conv-9"))

	pool.execFn = func(string, ...any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	assert.ErrorIs(t, repo.LinkConversation(context.Background(), 404, "conv-9"), domain.ErrNotFound)
}

func TestInterviewRepo_UpdateStatus_Error(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, assert.AnError
		},
	}
	repo := postgres.NewInterviewRepo(pool)
	err := repo.UpdateStatus(context.Background(), 1, domain.InterviewEvaluationFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=interviews.update_status")
}
