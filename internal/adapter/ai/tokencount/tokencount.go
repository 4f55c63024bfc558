// Package tokencount counts tokens for LLM prompts so callers can keep
// CV and transcript text inside a model's context budget.
//
// It uses tiktoken-go. Gemini does not publish a tiktoken encoding, so
// cl100k_base is used as a close approximation; budgets should leave
// headroom accordingly.
package tokencount

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting.
type Counter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{}
}

// DefaultCounter is a process-wide counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc != nil {
		return c.enc, nil
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	c.enc = enc
	return enc, nil
}

// CountTokens counts tokens in text. On encoder failure it falls back to a
// rough 4-chars-per-token estimate rather than failing the caller.
func (c *Counter) CountTokens(text string) int {
	enc, err := c.encoding()
	if err != nil {
		slog.Warn("token encoder unavailable, using estimate", slog.Any("error", err))
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateToTokens returns text cut down to at most budget tokens. Text
// already within budget is returned unchanged.
func (c *Counter) TruncateToTokens(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	enc, err := c.encoding()
	if err != nil {
		slog.Warn("token encoder unavailable, truncating by bytes", slog.Any("error", err))
		return truncateBytes(text, budget*4)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return enc.Decode(tokens[:budget])
}

// truncateBytes cuts text to at most max bytes without splitting a UTF-8
// sequence.
func truncateBytes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
