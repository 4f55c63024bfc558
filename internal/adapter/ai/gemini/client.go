// Package gemini implements the Evaluator port on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"github.com/talentloop/ai-interviewer/internal/adapter/ai/tokencount"
	"github.com/talentloop/ai-interviewer/internal/config"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

// Client calls the Gemini API to evaluate interview transcripts and to
// generate interview system prompts. Transient API failures are retried
// with exponential backoff; whatever error survives the backoff budget is
// surfaced as an evaluation failure.
type Client struct {
	gc      *genai.Client
	model   string
	counter *tokencount.Counter
	budget  int

	maxElapsed      time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// New constructs a Client. It performs no network calls; credential
// problems surface on first use.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	maxElapsed, initial, maxIvl, mult := cfg.GetAIBackoffConfig()
	return &Client{
		gc:              gc,
		model:           cfg.GeminiModel,
		counter:         tokencount.DefaultCounter,
		budget:          cfg.PromptTokenBudget,
		maxElapsed:      maxElapsed,
		initialInterval: initial,
		maxInterval:     maxIvl,
		multiplier:      mult,
	}, nil
}

// Evaluate scores a completed interview. The transcript and CV are
// truncated to the prompt token budget before being embedded in the prompt.
func (c *Client) Evaluate(ctx context.Context, transcript, cvText string, job *domain.JobContext) (domain.Evaluation, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.Evaluation{}, fmt.Errorf("%w: empty transcript", domain.ErrInvalidArgument)
	}
	prompt := buildEvaluationPrompt(
		c.counter.TruncateToTokens(transcript, c.budget),
		c.counter.TruncateToTokens(cvText, c.budget/2),
		job,
	)

	raw, err := c.generate(ctx, prompt, 0.2)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("op=gemini.Evaluate: %w: %v", domain.ErrEvaluationFailed, err)
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		slog.Warn("evaluator returned unparseable output",
			slog.String("model", c.model),
			slog.Int("response_len", len(raw)),
			slog.Any("error", err))
		return domain.Evaluation{}, fmt.Errorf("op=gemini.Evaluate: %w", err)
	}
	return eval, nil
}

// GenerateSystemPrompt produces the interviewer agent's system prompt from
// the candidate's CV and the role they applied for.
func (c *Client) GenerateSystemPrompt(ctx context.Context, cvText, role string) (string, error) {
	if strings.TrimSpace(cvText) == "" {
		return "", fmt.Errorf("%w: empty cv text", domain.ErrInvalidArgument)
	}
	prompt := buildSystemPromptRequest(c.counter.TruncateToTokens(cvText, c.budget), role)
	out, err := c.generate(ctx, prompt, 0.7)
	if err != nil {
		return "", fmt.Errorf("op=gemini.GenerateSystemPrompt: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("op=gemini.GenerateSystemPrompt: %w: empty model output", domain.ErrEvaluationFailed)
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: 4096,
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.Multiplier = c.multiplier

	var text string
	op := func() error {
		resp, err := c.gc.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
		if err != nil {
			return err
		}
		if resp == nil {
			return fmt.Errorf("nil response")
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("no text content in response")
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("model call failed, retrying",
			slog.String("model", c.model),
			slog.Duration("wait", wait),
			slog.Any("error", err))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return text, nil
}
