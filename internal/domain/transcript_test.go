package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

func TestFormatTranscript_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", domain.FormatTranscript(nil))
	assert.Equal(t, "", domain.FormatTranscript([]domain.TranscriptTurn{}))
}

func TestFormatTranscript_LabelsAndOrder(t *testing.T) {
	t.Parallel()
	turns := []domain.TranscriptTurn{
		{Role: "agent", Message: "Hello"},
		{Role: "user", Message: "Hi"},
		{Role: "agent", Message: "Tell me about yourself"},
	}
	got := domain.FormatTranscript(turns)
	assert.Equal(t, "Interviewer: Hello\n\nCandidate: Hi\n\nInterviewer: Tell me about yourself", got)
}

func TestFormatTranscript_OnePairPerTurn(t *testing.T) {
	t.Parallel()
	cases := [][]domain.TranscriptTurn{
		{{Role: "agent", Message: "a"}},
		{{Role: "user", Message: "b"}, {Role: "agent", Message: "c"}},
		{{Role: "user", Message: "x"}, {Role: "user", Message: "y"}, {Role: "user", Message: "z"}, {Role: "agent", Message: "w"}},
	}
	for _, turns := range cases {
		got := domain.FormatTranscript(turns)
		blocks := strings.Split(got, "\n\n")
		require.Len(t, blocks, len(turns))
		for i, blk := range blocks {
			assert.True(t, strings.HasSuffix(blk, ": "+turns[i].Message), "turn %d rendered out of order: %q", i, blk)
		}
	}
}

func TestSpeakerLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Interviewer", domain.SpeakerLabel("agent"))
	assert.Equal(t, "Interviewer", domain.SpeakerLabel("Interviewer"))
	assert.Equal(t, "Candidate", domain.SpeakerLabel("user"))
	assert.Equal(t, "Candidate", domain.SpeakerLabel(""))
	assert.Equal(t, "Candidate", domain.SpeakerLabel("unknown"))
}

func TestEvaluationValidate(t *testing.T) {
	t.Parallel()
	ok := domain.Evaluation{Summary: "solid", Score: 7.5}
	require.NoError(t, ok.Validate())

	bad := []domain.Evaluation{
		{Summary: "", Score: 5},
		{Summary: "s", Score: -0.1},
		{Summary: "s", Score: 10.5},
	}
	for _, e := range bad {
		assert.ErrorIs(t, e.Validate(), domain.ErrEvaluationFailed)
	}
}
