package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/talentloop/ai-interviewer/internal/adapter/voice/elevenlabs"
	"github.com/talentloop/ai-interviewer/internal/config"
	"github.com/talentloop/ai-interviewer/internal/domain"
	"github.com/talentloop/ai-interviewer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Completion usecase.CompletionService
	Prompts    usecase.PromptService
	Uploads    usecase.UploadService
	Jobs       usecase.JobService
	Candidates domain.CandidateRepository
	Files      domain.FileStore
	DBCheck    func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, completion usecase.CompletionService, prompts usecase.PromptService, uploads usecase.UploadService, jobs usecase.JobService, candidates domain.CandidateRepository, files domain.FileStore, dbCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:        cfg,
		Completion: completion,
		Prompts:    prompts,
		Uploads:    uploads,
		Jobs:       jobs,
		Candidates: candidates,
		Files:      files,
		DBCheck:    dbCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", domain.ErrInvalidArgument, err)
	}
	if err := getValidator().Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

type interviewResponse struct {
	ID             int64           `json:"id"`
	CandidateID    int64           `json:"candidateId"`
	ConversationID *string         `json:"conversationId,omitempty"`
	Status         string          `json:"status"`
	Transcript     *string         `json:"transcript,omitempty"`
	Evaluation     json.RawMessage `json:"evaluation,omitempty"`
	Score          *float64        `json:"score,omitempty"`
	Warning        string          `json:"warning,omitempty"`
}

func toInterviewResponse(iv domain.Interview) interviewResponse {
	resp := interviewResponse{
		ID:             iv.ID,
		CandidateID:    iv.CandidateID,
		ConversationID: iv.ConversationID,
		Status:         string(iv.Status),
		Transcript:     iv.Transcript,
		Score:          iv.Score,
	}
	if iv.EvaluationJSON != nil {
		resp.Evaluation = json.RawMessage(*iv.EvaluationJSON)
	}
	return resp
}

// WebhookHandler receives provider webhooks. The body is attacker
// controlled until ParseWebhookPayload accepts it. The 200 goes out once
// the transcript is durable; evaluation continues in the background.
func (s *Server) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 2<<20))
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read body: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		ev, err := elevenlabs.ParseWebhookPayload(body)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Completion.HandleWebhook(r.Context(), ev); err != nil {
			writeError(w, r, err, map[string]any{"conversation_id": ev.ConversationID})
			return
		}
		LoggerFrom(r).Info("webhook accepted", slog.String("conversation_id", ev.ConversationID))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// CompleteInterviewHandler drives the pull path by candidate id.
func (s *Server) CompleteInterviewHandler() http.HandlerFunc {
	type req struct {
		CandidateID int64 `json:"candidateId" validate:"required,gt=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		iv, err := s.Completion.CompleteByCandidate(r.Context(), in.CandidateID)
		if err != nil {
			writeError(w, r, err, map[string]any{"candidate_id": in.CandidateID})
			return
		}
		resp := toInterviewResponse(iv)
		if iv.Status == domain.InterviewEvaluationFailed {
			resp.Warning = "transcript saved but evaluation failed; retry via /evaluate"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// EvaluateHandler retries evaluation for an interview that already has a
// transcript.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	type req struct {
		InterviewID int64 `json:"interviewId" validate:"required,gt=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		iv, err := s.Completion.Reevaluate(r.Context(), in.InterviewID)
		if err != nil {
			writeError(w, r, err, map[string]any{"interview_id": in.InterviewID})
			return
		}
		writeJSON(w, http.StatusOK, toInterviewResponse(iv))
	}
}

// LinkConversationHandler attaches a provider conversation to a candidate's
// interview before the voice session starts.
func (s *Server) LinkConversationHandler() http.HandlerFunc {
	type req struct {
		CandidateID    int64  `json:"candidateId" validate:"required,gt=0"`
		ConversationID string `json:"conversationId" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Completion.LinkConversation(r.Context(), in.CandidateID, in.ConversationID); err != nil {
			writeError(w, r, err, map[string]any{"candidate_id": in.CandidateID})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// GeneratePromptHandler builds the interviewer system prompt for a candidate.
func (s *Server) GeneratePromptHandler() http.HandlerFunc {
	type req struct {
		CandidateID int64 `json:"candidateId" validate:"required,gt=0"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		prompt, err := s.Prompts.Generate(r.Context(), in.CandidateID)
		if err != nil {
			writeError(w, r, err, map[string]any{"candidate_id": in.CandidateID})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"systemPrompt": prompt})
	}
}

// allowedExt enforces an allowlist for uploads: .txt and .pdf.
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf")
}

func allowedMIME(m string) bool {
	m = strings.ToLower(m)
	if strings.HasPrefix(m, "text/plain") {
		return true
	}
	return m == "application/pdf"
}

// UploadCVHandler handles multipart CV intake and creates the candidate
// with a pending interview.
func (s *Server) UploadCVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "PAYLOAD_TOO_LARGE",
					Message: fmt.Sprintf("upload exceeds %d MB", s.Cfg.MaxUploadMB),
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: parse multipart: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		name := strings.TrimSpace(r.FormValue("name"))
		email := strings.TrimSpace(r.FormValue("email"))
		if name == "" || email == "" {
			writeError(w, r, fmt.Errorf("%w: name and email required", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Var(email, "email"); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument), nil)
			return
		}

		var jobID *int64
		if v := r.FormValue("jobId"); v != "" {
			var id int64
			if _, err := fmt.Sscanf(v, "%d", &id); err != nil || id <= 0 {
				writeError(w, r, fmt.Errorf("%w: invalid jobId", domain.ErrInvalidArgument), nil)
				return
			}
			jobID = &id
		}

		file, header, err := r.FormFile("cv")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: cv file required", domain.ErrInvalidArgument), nil)
			return
		}
		defer func() { _ = file.Close() }()

		if !allowedExt(header.Filename) {
			writeError(w, r, fmt.Errorf("%w: only .txt and .pdf files accepted", domain.ErrInvalidArgument), nil)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		if mt := mimetype.Detect(data); !allowedMIME(mt.String()) {
			writeError(w, r, fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidArgument, mt.String()), nil)
			return
		}

		res, err := s.Uploads.Upload(r.Context(), name, email, header.Filename, data, jobID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"candidateId": res.Candidate.ID,
			"interviewId": res.Interview.ID,
			"accessToken": res.AccessToken,
		})
	}
}

// CreateJobHandler creates a job posting.
func (s *Server) CreateJobHandler() http.HandlerFunc {
	type req struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		Criteria    string `json:"criteria"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		job, err := s.Jobs.Create(r.Context(), in.Title, in.Description, in.Criteria)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, jobResponse(job))
	}
}

// ListJobsHandler lists open postings.
func (s *Server) ListJobsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := s.Jobs.ListOpen(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]map[string]any, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, jobResponse(j))
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
	}
}

func jobResponse(j domain.Job) map[string]any {
	return map[string]any{
		"id":          j.ID,
		"title":       j.Title,
		"description": j.Description,
		"criteria":    j.Criteria,
		"status":      string(j.Status),
	}
}

// HealthzHandler is the liveness probe.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// ReadyzHandler is the readiness probe; it checks the database.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "db": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}
}
