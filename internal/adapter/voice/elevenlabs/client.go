// Package elevenlabs adapts the ElevenLabs Conversational AI API: the
// webhook envelope pushed by the provider and the REST pull of finalized
// conversations.
package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/talentloop/ai-interviewer/internal/adapter/observability"
	"github.com/talentloop/ai-interviewer/internal/config"
	"github.com/talentloop/ai-interviewer/internal/domain"
)

// Client implements domain.ConversationProvider against the ElevenLabs REST
// API. The provider may take a moment to finalize a conversation after the
// session ends, so FetchConversation retries a bounded number of times,
// waiting longer when the provider explicitly reports "processing" than on
// a transport-level failure.
type Client struct {
	baseURL        string
	apiKey         string
	hc             *http.Client
	attempts       int
	transportWait  time.Duration
	processingWait time.Duration
}

// New constructs a Client from configuration.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL: cfg.ElevenLabsBaseURL,
		apiKey:  cfg.ElevenLabsAPIKey,
		hc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		attempts:       cfg.ConversationFetchAttempts,
		transportWait:  cfg.ConversationTransportWait,
		processingWait: cfg.ConversationProcessingWait,
	}
}

type conversationResponse struct {
	Status     string                  `json:"status"`
	Transcript []domain.TranscriptTurn `json:"transcript"`
}

// FetchConversation fetches the finalized conversation, retrying up to the
// configured attempt budget and giving up deterministically afterwards.
func (c *Client) FetchConversation(ctx context.Context, conversationID string) (domain.Conversation, error) {
	if conversationID == "" {
		return domain.Conversation{}, fmt.Errorf("%w: conversation id required", domain.ErrInvalidArgument)
	}
	endpoint := fmt.Sprintf("%s/v1/convai/conversations/%s", c.baseURL, url.PathEscape(conversationID))

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		conv, retryable, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			if conv.Status == "processing" {
				lastErr = fmt.Errorf("%w: conversation still processing", domain.ErrUpstreamTimeout)
				if attempt < c.attempts {
					slog.Debug("conversation still processing",
						slog.String("conversation_id", conversationID),
						slog.Int("attempt", attempt))
					if werr := c.wait(ctx, c.processingWait); werr != nil {
						return domain.Conversation{}, werr
					}
				}
				continue
			}
			observability.ProviderFetchAttempts.Observe(float64(attempt))
			return conv, nil
		}
		lastErr = err
		if !retryable || attempt == c.attempts {
			break
		}
		slog.Warn("conversation fetch failed, retrying",
			slog.String("conversation_id", conversationID),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if werr := c.wait(ctx, c.transportWait); werr != nil {
			return domain.Conversation{}, werr
		}
	}
	return domain.Conversation{}, fmt.Errorf("op=elevenlabs.fetch: giving up after %d attempts: %w", c.attempts, lastErr)
}

// fetchOnce performs a single GET. retryable marks transport-level and
// provider-side failures worth another attempt.
func (c *Client) fetchOnce(ctx context.Context, endpoint string) (domain.Conversation, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Conversation{}, false, fmt.Errorf("op=elevenlabs.fetch: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return domain.Conversation{}, true, fmt.Errorf("op=elevenlabs.fetch: %w: %v", domain.ErrUpstreamTimeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.Conversation{}, true, fmt.Errorf("op=elevenlabs.fetch: %w: provider status %d", domain.ErrUpstreamTimeout, resp.StatusCode)
	}

	var cr conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return domain.Conversation{}, true, fmt.Errorf("op=elevenlabs.fetch: decode: %w", err)
	}
	return domain.Conversation{Status: cr.Status, Transcript: cr.Transcript}, false, nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("op=elevenlabs.fetch: %w", ctx.Err())
	}
}
