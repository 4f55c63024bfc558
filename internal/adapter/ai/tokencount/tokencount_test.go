package tokencount_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentloop/ai-interviewer/internal/adapter/ai/tokencount"
)

func TestCountTokens(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()
	assert.Zero(t, c.CountTokens(""))
	n := c.CountTokens("Hello, world! This is a test sentence.")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 20)
}

func TestTruncateToTokens(t *testing.T) {
	t.Parallel()
	c := tokencount.NewCounter()

	short := "a short sentence"
	assert.Equal(t, short, c.TruncateToTokens(short, 100))

	long := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	got := c.TruncateToTokens(long, 50)
	assert.Less(t, len(got), len(long))
	assert.LessOrEqual(t, c.CountTokens(got), 50)

	assert.Empty(t, c.TruncateToTokens(long, 0))
}
