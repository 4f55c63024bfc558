package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// JobService manages job postings.
type JobService struct {
	Jobs domain.JobRepository
}

// NewJobService constructs a JobService.
func NewJobService(jobs domain.JobRepository) JobService {
	return JobService{Jobs: jobs}
}

// Create validates and stores a new posting, open by default.
func (s JobService) Create(ctx context.Context, title, description, criteria string) (domain.Job, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Job{}, fmt.Errorf("%w: title required", domain.ErrInvalidArgument)
	}
	j := domain.Job{Title: title, Description: description, Criteria: criteria, Status: domain.JobOpen}
	id, err := s.Jobs.Create(ctx, j)
	if err != nil {
		return domain.Job{}, fmt.Errorf("op=jobs.Create: %w", err)
	}
	return s.Jobs.Get(ctx, id)
}

// Get loads one posting.
func (s JobService) Get(ctx context.Context, id int64) (domain.Job, error) {
	if id <= 0 {
		return domain.Job{}, fmt.Errorf("%w: job id required", domain.ErrInvalidArgument)
	}
	return s.Jobs.Get(ctx, id)
}

// ListOpen returns postings candidates can currently apply to.
func (s JobService) ListOpen(ctx context.Context) ([]domain.Job, error) {
	return s.Jobs.ListOpen(ctx)
}
