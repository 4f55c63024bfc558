package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// CandidateRepo persists candidates and their interview rows.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

// CreateWithInterview inserts the candidate and its interview row in one
// transaction. The interview starts in pending so a crash between the two
// inserts cannot leave a candidate without an interview.
func (r *CandidateRepo) CreateWithInterview(ctx context.Context, c domain.Candidate) (domain.Candidate, domain.Interview, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.CreateWithInterview")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "candidates"),
	)

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Candidate{}, domain.Interview{}, fmt.Errorf("op=candidates.create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	c.CreatedAt = now
	q := `INSERT INTO candidates (name, email, cv_text, cv_file_name, cv_file_key, access_token, job_id, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`
	if err := tx.QueryRow(ctx, q, c.Name, c.Email, c.CVText, c.CVFileName, c.CVFileKey, c.AccessToken, c.JobID, now).Scan(&c.ID); err != nil {
		return domain.Candidate{}, domain.Interview{}, fmt.Errorf("op=candidates.create: %w", err)
	}

	iv := domain.Interview{CandidateID: c.ID, Status: domain.InterviewPending, CreatedAt: now}
	q = `INSERT INTO interviews (candidate_id, status, created_at) VALUES ($1,$2,$3) RETURNING id`
	if err := tx.QueryRow(ctx, q, iv.CandidateID, iv.Status, now).Scan(&iv.ID); err != nil {
		return domain.Candidate{}, domain.Interview{}, fmt.Errorf("op=candidates.create: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Candidate{}, domain.Interview{}, fmt.Errorf("op=candidates.create: %w", err)
	}
	return c, iv, nil
}

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx context.Context, id int64) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT id, name, email, cv_text, cv_file_name, cv_file_key, access_token, job_id, created_at
	      FROM candidates WHERE id=$1`
	var c domain.Candidate
	err := r.Pool.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.CVText, &c.CVFileName, &c.CVFileKey, &c.AccessToken, &c.JobID, &c.CreatedAt)
	if err != nil {
		return domain.Candidate{}, scanErr("candidates.get", err)
	}
	return c, nil
}

// ListOverviews returns all candidates joined with their interview state,
// newest first. Used by the admin listing.
func (r *CandidateRepo) ListOverviews(ctx context.Context) ([]domain.CandidateOverview, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.ListOverviews")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT c.id, c.name, c.email, c.cv_file_name, c.job_id, c.created_at, i.id, i.status, i.score
	      FROM candidates c
	      JOIN interviews i ON i.candidate_id = c.id
	      ORDER BY c.created_at DESC`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=candidates.list_overviews: %w", err)
	}
	defer rows.Close()

	var out []domain.CandidateOverview
	for rows.Next() {
		var o domain.CandidateOverview
		if err := rows.Scan(
			&o.Candidate.ID, &o.Candidate.Name, &o.Candidate.Email, &o.Candidate.CVFileName,
			&o.Candidate.JobID, &o.Candidate.CreatedAt,
			&o.InterviewID, &o.InterviewStatus, &o.Score,
		); err != nil {
			return nil, fmt.Errorf("op=candidates.list_overviews: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidates.list_overviews: %w", err)
	}
	return out, nil
}
