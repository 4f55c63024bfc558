package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// JobRepo persists job postings.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

// Create stores a job and returns its id.
func (r *JobRepo) Create(ctx context.Context, j domain.Job) (int64, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "jobs"),
	)
	status := j.Status
	if status == "" {
		status = domain.JobOpen
	}
	q := `INSERT INTO jobs (title, description, criteria, status, created_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`
	var id int64
	if err := r.Pool.QueryRow(ctx, q, j.Title, j.Description, j.Criteria, status, time.Now().UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("op=jobs.create: %w", err)
	}
	return id, nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx context.Context, id int64) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT id, title, description, criteria, status, created_at FROM jobs WHERE id=$1`
	var j domain.Job
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&j.ID, &j.Title, &j.Description, &j.Criteria, &j.Status, &j.CreatedAt); err != nil {
		return domain.Job{}, scanErr("jobs.get", err)
	}
	return j, nil
}

// ListOpen returns open jobs, newest first.
func (r *JobRepo) ListOpen(ctx context.Context) ([]domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ListOpen")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT id, title, description, criteria, status, created_at FROM jobs WHERE status=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, domain.JobOpen)
	if err != nil {
		return nil, fmt.Errorf("op=jobs.list_open: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Description, &j.Criteria, &j.Status, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=jobs.list_open: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=jobs.list_open: %w", err)
	}
	return jobs, nil
}
