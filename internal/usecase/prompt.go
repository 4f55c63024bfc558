package usecase

import (
	"context"
	"fmt"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// PromptService generates and stores the interviewer agent's system prompt
// for a candidate.
type PromptService struct {
	Interviews domain.InterviewRepository
	Candidates domain.CandidateRepository
	Jobs       domain.JobRepository
	Evaluator  domain.Evaluator
}

// NewPromptService constructs a PromptService with its dependencies.
func NewPromptService(iv domain.InterviewRepository, cand domain.CandidateRepository, jobs domain.JobRepository, eval domain.Evaluator) PromptService {
	return PromptService{Interviews: iv, Candidates: cand, Jobs: jobs, Evaluator: eval}
}

// Generate builds a system prompt from the candidate's CV and stores it on
// the interview, moving it to in_progress. Regenerating overwrites the
// previous prompt.
func (s PromptService) Generate(ctx context.Context, candidateID int64) (string, error) {
	if candidateID <= 0 {
		return "", fmt.Errorf("%w: candidate id required", domain.ErrInvalidArgument)
	}
	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return "", fmt.Errorf("op=prompt.Generate: %w", err)
	}

	var role string
	if cand.JobID != nil {
		if job, jerr := s.Jobs.Get(ctx, *cand.JobID); jerr == nil {
			role = job.Title
		}
	}

	prompt, err := s.Evaluator.GenerateSystemPrompt(ctx, cand.CVText, role)
	if err != nil {
		return "", fmt.Errorf("op=prompt.Generate: %w", err)
	}
	if err := s.Interviews.SaveSystemPrompt(ctx, candidateID, prompt); err != nil {
		return "", fmt.Errorf("op=prompt.Generate: %w", err)
	}
	return prompt, nil
}
