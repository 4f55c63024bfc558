package postgres

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// InterviewRepo persists interview rows, the state machine of the
// completion pipeline.
type InterviewRepo struct{ Pool PgxPool }

// NewInterviewRepo constructs an InterviewRepo with the given pool.
func NewInterviewRepo(p PgxPool) *InterviewRepo { return &InterviewRepo{Pool: p} }

const interviewColumns = `id, candidate_id, conversation_id, system_prompt, transcript, evaluation_json, score, status, created_at`

func scanInterview(row interface{ Scan(...any) error }) (domain.Interview, error) {
	var iv domain.Interview
	err := row.Scan(
		&iv.ID, &iv.CandidateID, &iv.ConversationID, &iv.SystemPrompt,
		&iv.Transcript, &iv.EvaluationJSON, &iv.Score, &iv.Status, &iv.CreatedAt)
	return iv, err
}

// Get loads an interview by id.
func (r *InterviewRepo) Get(ctx context.Context, id int64) (domain.Interview, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE id=$1`
	iv, err := scanInterview(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Interview{}, scanErr("interviews.get", err)
	}
	return iv, nil
}

// GetByCandidateID loads the interview belonging to a candidate.
func (r *InterviewRepo) GetByCandidateID(ctx context.Context, candidateID int64) (domain.Interview, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.GetByCandidateID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE candidate_id=$1`
	iv, err := scanInterview(r.Pool.QueryRow(ctx, q, candidateID))
	if err != nil {
		return domain.Interview{}, scanErr("interviews.get_by_candidate", err)
	}
	return iv, nil
}

// GetByConversationID loads the interview linked to a provider conversation.
func (r *InterviewRepo) GetByConversationID(ctx context.Context, conversationID string) (domain.Interview, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.GetByConversationID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE conversation_id=$1`
	iv, err := scanInterview(r.Pool.QueryRow(ctx, q, conversationID))
	if err != nil {
		return domain.Interview{}, scanErr("interviews.get_by_conversation", err)
	}
	return iv, nil
}

// LinkConversation attaches a provider conversation id to the candidate's
// interview. Re-linking overwrites; the latest session wins.
func (r *InterviewRepo) LinkConversation(ctx context.Context, candidateID int64, conversationID string) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.LinkConversation")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `UPDATE interviews SET conversation_id=$1 WHERE candidate_id=$2`
	tag, err := r.Pool.Exec(ctx, q, conversationID, candidateID)
	if err != nil {
		return fmt.Errorf("op=interviews.link_conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interviews.link_conversation: %w: candidate %d", domain.ErrNotFound, candidateID)
	}
	return nil
}

// SaveSystemPrompt stores the generated interviewer prompt and moves the
// interview to in_progress: a prompt means the session is being set up.
func (r *InterviewRepo) SaveSystemPrompt(ctx context.Context, candidateID int64, prompt string) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveSystemPrompt")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `UPDATE interviews SET system_prompt=$1, status=$2 WHERE candidate_id=$3`
	tag, err := r.Pool.Exec(ctx, q, prompt, domain.InterviewInProgress, candidateID)
	if err != nil {
		return fmt.Errorf("op=interviews.save_system_prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interviews.save_system_prompt: %w: candidate %d", domain.ErrNotFound, candidateID)
	}
	return nil
}

// SaveTranscript persists the transcript and moves the row to in_progress.
// This commit is deliberately separate from evaluation: the transcript must
// survive even if every later evaluation attempt fails.
func (r *InterviewRepo) SaveTranscript(ctx context.Context, id int64, transcript string) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveTranscript")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `UPDATE interviews SET transcript=$1, status=$2 WHERE id=$3`
	tag, err := r.Pool.Exec(ctx, q, transcript, domain.InterviewInProgress, id)
	if err != nil {
		return fmt.Errorf("op=interviews.save_transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interviews.save_transcript: %w: interview %d", domain.ErrNotFound, id)
	}
	return nil
}

// SaveEvaluation persists the serialized evaluation with its denormalized
// score and moves the row to completed.
func (r *InterviewRepo) SaveEvaluation(ctx context.Context, id int64, evaluationJSON string, score float64) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.SaveEvaluation")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `UPDATE interviews SET evaluation_json=$1, score=$2, status=$3 WHERE id=$4`
	tag, err := r.Pool.Exec(ctx, q, evaluationJSON, score, domain.InterviewCompleted, id)
	if err != nil {
		return fmt.Errorf("op=interviews.save_evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interviews.save_evaluation: %w: interview %d", domain.ErrNotFound, id)
	}
	return nil
}

// UpdateStatus sets the interview status field alone.
func (r *InterviewRepo) UpdateStatus(ctx context.Context, id int64, status domain.InterviewStatus) error {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "interviews"),
	)
	q := `UPDATE interviews SET status=$1 WHERE id=$2`
	tag, err := r.Pool.Exec(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("op=interviews.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interviews.update_status: %w: interview %d", domain.ErrNotFound, id)
	}
	return nil
}
