// Package domain defines entities, ports, and the error taxonomy for the
// interview screening pipeline.
package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamTimeout  = errors.New("upstream timeout")
	ErrEvaluationFailed = errors.New("evaluation failed")
	ErrInternal         = errors.New("internal error")
)

// JobStatus enumerates job posting states.
type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

// Job is an admin-owned posting. Immutable after creation except Status.
type Job struct {
	ID          int64
	Title       string
	Description string
	Criteria    string
	Status      JobStatus
	CreatedAt   time.Time
}

// Candidate is created once by the upload flow and never updated by the
// pipeline. AccessToken is an opaque secret generated at creation and shown
// only to the candidate.
type Candidate struct {
	ID          int64
	Name        string
	Email       string
	CVText      string
	CVFileName  string
	CVFileKey   string
	AccessToken string
	JobID       *int64
	CreatedAt   time.Time
}

// InterviewStatus is the finite-state field driving the completion pipeline:
// pending -> in_progress -> completed, with in_progress -> evaluation_failed
// after transcript capture. evaluation_failed may still move to completed
// via a manual re-evaluate.
type InterviewStatus string

const (
	InterviewPending          InterviewStatus = "pending"
	InterviewInProgress       InterviewStatus = "in_progress"
	InterviewCompleted        InterviewStatus = "completed"
	InterviewEvaluationFailed InterviewStatus = "evaluation_failed"
)

// Interview has a 1:1 relationship with Candidate and is looked up by two
// keys: candidate id (pull path, prompt generation) and conversation id
// (push path) once a conversation has been linked.
type Interview struct {
	ID             int64
	CandidateID    int64
	ConversationID *string
	SystemPrompt   *string
	Transcript     *string
	EvaluationJSON *string
	Score          *float64
	Status         InterviewStatus
	CreatedAt      time.Time
}

// Evaluation is the structured output of the AI evaluator.
type Evaluation struct {
	Summary    string   `json:"summary"`
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Validate enforces the evaluator output contract.
func (e Evaluation) Validate() error {
	if e.Summary == "" {
		return fmt.Errorf("%w: empty summary", ErrEvaluationFailed)
	}
	if e.Score < 0 || e.Score > 10 {
		return fmt.Errorf("%w: score %v out of range [0,10]", ErrEvaluationFailed, e.Score)
	}
	return nil
}

// TranscriptTurn is one speaker turn as delivered by the conversation
// provider. Role keeps the provider's spelling; FormatTranscript maps it to
// the canonical label.
type TranscriptTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// WebhookEvent is the validated, trusted shape of a provider webhook.
type WebhookEvent struct {
	ConversationID string
	Transcript     []TranscriptTurn
	Status         string
}

// Conversation is a finalized session fetched from the provider (pull path).
type Conversation struct {
	Status     string
	Transcript []TranscriptTurn
}

// JobContext is the optional posting context passed to the evaluator.
type JobContext struct {
	Title       string
	Description string
	Criteria    string
}

// CandidateOverview is the admin listing row joining candidate and interview.
type CandidateOverview struct {
	Candidate       Candidate
	InterviewID     int64
	InterviewStatus InterviewStatus
	Score           *float64
}

// Repositories (ports)

type JobRepository interface {
	Create(ctx context.Context, j Job) (int64, error)
	Get(ctx context.Context, id int64) (Job, error)
	ListOpen(ctx context.Context) ([]Job, error)
}

type CandidateRepository interface {
	// CreateWithInterview inserts the candidate and its single interview row
	// in one transaction; the interview starts in pending.
	CreateWithInterview(ctx context.Context, c Candidate) (Candidate, Interview, error)
	Get(ctx context.Context, id int64) (Candidate, error)
	ListOverviews(ctx context.Context) ([]CandidateOverview, error)
}

type InterviewRepository interface {
	Get(ctx context.Context, id int64) (Interview, error)
	GetByCandidateID(ctx context.Context, candidateID int64) (Interview, error)
	GetByConversationID(ctx context.Context, conversationID string) (Interview, error)
	// LinkConversation is an idempotent overwrite keyed by candidate id.
	LinkConversation(ctx context.Context, candidateID int64, conversationID string) error
	// SaveSystemPrompt stores the prompt and moves the interview to
	// in_progress.
	SaveSystemPrompt(ctx context.Context, candidateID int64, prompt string) error
	// SaveTranscript persists the transcript and moves the row to
	// in_progress. It commits independently of any later evaluation.
	SaveTranscript(ctx context.Context, id int64, transcript string) error
	// SaveEvaluation persists the serialized evaluation plus denormalized
	// score and moves the row to completed.
	SaveEvaluation(ctx context.Context, id int64, evaluationJSON string, score float64) error
	UpdateStatus(ctx context.Context, id int64, status InterviewStatus) error
}

// ConversationProvider (port) wraps the third-party voice session host.
// FetchConversation performs its own bounded retry while the provider
// reports the conversation is still processing.
type ConversationProvider interface {
	FetchConversation(ctx context.Context, conversationID string) (Conversation, error)
}

// Evaluator (port) wraps the generative model. Failures are opaque to the
// orchestrator: any error means "evaluation failed" for this attempt.
type Evaluator interface {
	Evaluate(ctx context.Context, transcript, cvText string, job *JobContext) (Evaluation, error)
	GenerateSystemPrompt(ctx context.Context, cvText, role string) (string, error)
}

// TextExtractor (port) converts uploaded document bytes to plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// FileStore (port) persists original CV files keyed by an opaque key.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
