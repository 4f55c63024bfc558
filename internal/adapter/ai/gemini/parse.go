package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// ParseEvaluation extracts a validated Evaluation from raw model output.
// Models wrap JSON in markdown fences or prose often enough that parsing
// tolerates both; the extracted object still must satisfy the evaluation
// contract.
func ParseEvaluation(raw string) (domain.Evaluation, error) {
	cleaned := extractJSONObject(stripMarkdownFences(raw))
	if cleaned == "" {
		return domain.Evaluation{}, fmt.Errorf("%w: no JSON object in model output", domain.ErrEvaluationFailed)
	}

	var eval domain.Evaluation
	if err := json.Unmarshal([]byte(cleaned), &eval); err != nil {
		return domain.Evaluation{}, fmt.Errorf("%w: malformed evaluation JSON: %v", domain.ErrEvaluationFailed, err)
	}
	if err := eval.Validate(); err != nil {
		return domain.Evaluation{}, err
	}
	return eval, nil
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first brace-balanced object in s, or "".
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
