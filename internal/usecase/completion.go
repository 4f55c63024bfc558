// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentloop/ai-interviewer/internal/adapter/observability"
	"github.com/talentloop/ai-interviewer/internal/domain"
	"github.com/talentloop/ai-interviewer/internal/service/tasks"
)

// CompletionService orchestrates interview completion: transcript capture
// followed by AI evaluation, reachable through three paths.
//
// Push: the provider webhook delivers the transcript; the response is sent
// as soon as the transcript is durable and evaluation runs detached.
// Pull: a client asks for completion by candidate id; the transcript is
// fetched from the provider and evaluation runs inline.
// Re-evaluate: an operator retries evaluation over the stored transcript.
//
// On every path the transcript commit is isolated from evaluation, so an
// evaluator outage can never lose the interview itself.
type CompletionService struct {
	Interviews domain.InterviewRepository
	Candidates domain.CandidateRepository
	Jobs       domain.JobRepository
	Provider   domain.ConversationProvider
	Evaluator  domain.Evaluator
	Runner     *tasks.Runner
}

// NewCompletionService constructs a CompletionService with its dependencies.
func NewCompletionService(
	iv domain.InterviewRepository,
	cand domain.CandidateRepository,
	jobs domain.JobRepository,
	provider domain.ConversationProvider,
	eval domain.Evaluator,
	runner *tasks.Runner,
) CompletionService {
	return CompletionService{
		Interviews: iv,
		Candidates: cand,
		Jobs:       jobs,
		Provider:   provider,
		Evaluator:  eval,
		Runner:     runner,
	}
}

// HandleWebhook processes a validated provider webhook. The transcript is
// persisted before returning; evaluation is handed to the runner so webhook
// latency never includes a model call. Duplicate deliveries overwrite the
// same row with the same content, so redelivery is harmless.
func (s CompletionService) HandleWebhook(ctx context.Context, ev domain.WebhookEvent) error {
	iv, err := s.Interviews.GetByConversationID(ctx, ev.ConversationID)
	if err != nil {
		observability.WebhookEventsTotal.WithLabelValues("unlinked").Inc()
		return fmt.Errorf("op=completion.HandleWebhook: %w", err)
	}

	transcript := domain.FormatTranscript(ev.Transcript)
	if err := s.Interviews.SaveTranscript(ctx, iv.ID, transcript); err != nil {
		return fmt.Errorf("op=completion.HandleWebhook: %w", err)
	}
	observability.TranscriptsSavedTotal.WithLabelValues("push").Inc()
	observability.WebhookEventsTotal.WithLabelValues("accepted").Inc()

	candidateID := iv.CandidateID
	interviewID := iv.ID
	s.Runner.Go(ctx, "evaluate", func(taskCtx context.Context) {
		if err := s.evaluateAndPersist(taskCtx, interviewID, candidateID, transcript, "push"); err != nil {
			slog.Error("detached evaluation failed",
				slog.Int64("interview_id", interviewID),
				slog.Any("error", err))
			if uerr := s.Interviews.UpdateStatus(taskCtx, interviewID, domain.InterviewEvaluationFailed); uerr != nil {
				slog.Error("failed to mark interview evaluation_failed",
					slog.Int64("interview_id", interviewID),
					slog.Any("error", uerr))
			}
		}
	})
	return nil
}

// CompleteByCandidate drives the pull path. The provider fetch retries
// internally while the conversation is still processing. A failed
// evaluation is reported in the returned interview's status rather than as
// an error: the transcript made it, which is the part that cannot be
// recovered later.
func (s CompletionService) CompleteByCandidate(ctx context.Context, candidateID int64) (domain.Interview, error) {
	if candidateID <= 0 {
		return domain.Interview{}, fmt.Errorf("%w: candidate id required", domain.ErrInvalidArgument)
	}
	iv, err := s.Interviews.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.CompleteByCandidate: %w", err)
	}
	if iv.ConversationID == nil || *iv.ConversationID == "" {
		return domain.Interview{}, fmt.Errorf("%w: no conversation linked to candidate %d", domain.ErrInvalidArgument, candidateID)
	}

	conv, err := s.Provider.FetchConversation(ctx, *iv.ConversationID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.CompleteByCandidate: %w", err)
	}

	transcript := domain.FormatTranscript(conv.Transcript)
	if err := s.Interviews.SaveTranscript(ctx, iv.ID, transcript); err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.CompleteByCandidate: %w", err)
	}
	observability.TranscriptsSavedTotal.WithLabelValues("pull").Inc()

	if err := s.evaluateAndPersist(ctx, iv.ID, iv.CandidateID, transcript, "pull"); err != nil {
		slog.Warn("pull-path evaluation failed, transcript kept",
			slog.Int64("interview_id", iv.ID),
			slog.Any("error", err))
		if uerr := s.Interviews.UpdateStatus(ctx, iv.ID, domain.InterviewEvaluationFailed); uerr != nil {
			slog.Error("failed to mark interview evaluation_failed",
				slog.Int64("interview_id", iv.ID),
				slog.Any("error", uerr))
		}
	}
	out, err := s.Interviews.Get(ctx, iv.ID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.CompleteByCandidate: %w", err)
	}
	return out, nil
}

// Reevaluate retries evaluation over the stored transcript. Unlike the
// other paths it surfaces evaluation failure to the caller, since retrying
// is the entire point of the operation.
func (s CompletionService) Reevaluate(ctx context.Context, interviewID int64) (domain.Interview, error) {
	if interviewID <= 0 {
		return domain.Interview{}, fmt.Errorf("%w: interview id required", domain.ErrInvalidArgument)
	}
	iv, err := s.Interviews.Get(ctx, interviewID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.Reevaluate: %w", err)
	}
	if iv.Transcript == nil || strings.TrimSpace(*iv.Transcript) == "" {
		return domain.Interview{}, fmt.Errorf("%w: interview %d has no transcript", domain.ErrInvalidArgument, interviewID)
	}

	if err := s.evaluateAndPersist(ctx, iv.ID, iv.CandidateID, *iv.Transcript, "reevaluate"); err != nil {
		if uerr := s.Interviews.UpdateStatus(ctx, iv.ID, domain.InterviewEvaluationFailed); uerr != nil {
			slog.Error("failed to mark interview evaluation_failed",
				slog.Int64("interview_id", iv.ID),
				slog.Any("error", uerr))
		}
		return domain.Interview{}, fmt.Errorf("op=completion.Reevaluate: %w", err)
	}
	out, err := s.Interviews.Get(ctx, iv.ID)
	if err != nil {
		return domain.Interview{}, fmt.Errorf("op=completion.Reevaluate: %w", err)
	}
	return out, nil
}

// LinkConversation attaches a provider conversation to the candidate's
// interview before the session starts. Re-linking overwrites.
func (s CompletionService) LinkConversation(ctx context.Context, candidateID int64, conversationID string) error {
	if candidateID <= 0 || strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: candidate id and conversation id required", domain.ErrInvalidArgument)
	}
	if err := s.Interviews.LinkConversation(ctx, candidateID, conversationID); err != nil {
		return fmt.Errorf("op=completion.LinkConversation: %w", err)
	}
	return nil
}

// evaluateAndPersist runs the evaluator over a transcript and commits the
// result. Shared by all three completion paths.
func (s CompletionService) evaluateAndPersist(ctx context.Context, interviewID, candidateID int64, transcript, path string) error {
	if strings.TrimSpace(transcript) == "" {
		observability.EvaluationsTotal.WithLabelValues(path, "failed").Inc()
		return fmt.Errorf("%w: empty transcript", domain.ErrEvaluationFailed)
	}

	var cvText string
	var jobCtx *domain.JobContext
	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		// Evaluation can proceed without CV context; log and continue.
		slog.Warn("candidate lookup failed, evaluating without cv context",
			slog.Int64("candidate_id", candidateID),
			slog.Any("error", err))
	} else {
		cvText = cand.CVText
		if cand.JobID != nil {
			if job, jerr := s.Jobs.Get(ctx, *cand.JobID); jerr == nil {
				jobCtx = &domain.JobContext{Title: job.Title, Description: job.Description, Criteria: job.Criteria}
			}
		}
	}

	eval, err := s.Evaluator.Evaluate(ctx, transcript, cvText, jobCtx)
	if err != nil {
		observability.EvaluationsTotal.WithLabelValues(path, "failed").Inc()
		return err
	}
	raw, err := json.Marshal(eval)
	if err != nil {
		observability.EvaluationsTotal.WithLabelValues(path, "failed").Inc()
		return fmt.Errorf("%w: marshal evaluation: %v", domain.ErrEvaluationFailed, err)
	}
	if err := s.Interviews.SaveEvaluation(ctx, interviewID, string(raw), eval.Score); err != nil {
		observability.EvaluationsTotal.WithLabelValues(path, "failed").Inc()
		return err
	}
	observability.EvaluationsTotal.WithLabelValues(path, "ok").Inc()
	observability.InterviewScoreHistogram.Observe(eval.Score)
	return nil
}
