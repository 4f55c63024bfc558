package domain

import "strings"

// Canonical speaker labels used when rendering transcripts. Labels are fixed
// at write time; stored transcripts never mix spellings.
const (
	LabelInterviewer = "Interviewer"
	LabelCandidate   = "Candidate"
)

// SpeakerLabel maps a provider role to the canonical label. The provider
// reports the AI side as "agent"; "interviewer" is accepted for parity with
// payloads that already carry the canonical role.
func SpeakerLabel(role string) string {
	switch strings.ToLower(role) {
	case "agent", "interviewer":
		return LabelInterviewer
	default:
		return LabelCandidate
	}
}

// FormatTranscript renders speaker turns as "<Label>: <message>" separated by
// blank lines, in original order. It is total: any well-typed input yields a
// string, and an empty sequence yields "".
func FormatTranscript(turns []TranscriptTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(SpeakerLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Message)
	}
	return b.String()
}
