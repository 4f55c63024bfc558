// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the completion pipeline (webhook, pull completion,
// re-evaluate, conversation linking), CV intake, prompt generation, jobs,
// and a basic-auth admin surface. HTTP concerns stay here; business rules
// live in usecase.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		code = http.StatusInternalServerError
		codeStr = "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrEvaluationFailed):
		code = http.StatusInternalServerError
		codeStr = "EVALUATION_FAILED"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}

// RateLimitedHandler renders rate-limit rejections in the standard error
// envelope. The limiter has already set the X-RateLimit-* headers.
func RateLimitedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, domain.ErrRateLimited, nil)
	}
}
