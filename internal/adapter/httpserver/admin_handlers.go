package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// Admin surface: read-only screening review behind basic auth. Mounted
// only when admin credentials are configured.

type candidateOverviewResponse struct {
	CandidateID int64    `json:"candidateId"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	CVFileName  string   `json:"cvFileName"`
	JobID       *int64   `json:"jobId,omitempty"`
	InterviewID int64    `json:"interviewId"`
	Status      string   `json:"status"`
	Score       *float64 `json:"score,omitempty"`
}

// AdminListCandidatesHandler lists all candidates with interview state.
func (s *Server) AdminListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overviews, err := s.Candidates.ListOverviews(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]candidateOverviewResponse, 0, len(overviews))
		for _, o := range overviews {
			out = append(out, candidateOverviewResponse{
				CandidateID: o.Candidate.ID,
				Name:        o.Candidate.Name,
				Email:       o.Candidate.Email,
				CVFileName:  o.Candidate.CVFileName,
				JobID:       o.Candidate.JobID,
				InterviewID: o.InterviewID,
				Status:      string(o.InterviewStatus),
				Score:       o.Score,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
	}
}

// AdminCandidateDetailHandler returns one candidate with full interview
// data, including transcript and evaluation.
func (s *Server) AdminCandidateDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		cand, err := s.Candidates.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		iv, err := s.Completion.Interviews.GetByCandidateID(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"candidate": map[string]any{
				"id":         cand.ID,
				"name":       cand.Name,
				"email":      cand.Email,
				"cvFileName": cand.CVFileName,
				"jobId":      cand.JobID,
				"cvText":     cand.CVText,
			},
			"interview": toInterviewResponse(iv),
		})
	}
}

// AdminDownloadCVHandler streams the originally uploaded CV file.
func (s *Server) AdminDownloadCVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		cand, err := s.Candidates.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if cand.CVFileKey == "" {
			writeError(w, r, fmt.Errorf("%w: no stored cv for candidate %d", domain.ErrNotFound, id), nil)
			return
		}
		rc, err := s.Files.Open(r.Context(), cand.CVFileKey)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		defer func() { _ = rc.Close() }()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cand.CVFileName))
		_, _ = io.Copy(w, rc)
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidArgument, raw)
	}
	return id, nil
}
