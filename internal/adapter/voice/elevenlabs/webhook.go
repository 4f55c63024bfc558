package elevenlabs

import (
	"encoding/json"
	"fmt"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// EventPostConversationEvaluation is the only webhook event type this
// service consumes.
const EventPostConversationEvaluation = "post_conversation_evaluation"

// ParseWebhookPayload validates an inbound, attacker-controlled webhook body
// and returns the typed event. Checks run in order and fail on the first
// violation: object shape, event-type discriminator, nested data object,
// string conversation id, transcript array. Turn entries are passed through;
// role/message are interpreted later by the transcript normalizer.
func ParseWebhookPayload(body []byte) (domain.WebhookEvent, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: webhook payload is not an object", domain.ErrInvalidArgument)
	}

	var eventType string
	if raw, ok := payload["type"]; ok {
		_ = json.Unmarshal(raw, &eventType)
	}
	if eventType != EventPostConversationEvaluation {
		return domain.WebhookEvent{}, fmt.Errorf("%w: unrecognized webhook type %q", domain.ErrInvalidArgument, eventType)
	}

	var data map[string]json.RawMessage
	if raw, ok := payload["data"]; ok {
		if err := json.Unmarshal(raw, &data); err != nil {
			return domain.WebhookEvent{}, fmt.Errorf("%w: webhook data is not an object", domain.ErrInvalidArgument)
		}
	}
	if data == nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: webhook payload missing data", domain.ErrInvalidArgument)
	}

	var conversationID string
	if raw, ok := data["conversation_id"]; ok {
		if err := json.Unmarshal(raw, &conversationID); err != nil {
			return domain.WebhookEvent{}, fmt.Errorf("%w: conversation_id is not a string", domain.ErrInvalidArgument)
		}
	}
	if conversationID == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: webhook data missing conversation_id", domain.ErrInvalidArgument)
	}

	rawTranscript, ok := data["transcript"]
	if !ok {
		return domain.WebhookEvent{}, fmt.Errorf("%w: webhook data missing transcript", domain.ErrInvalidArgument)
	}
	var turns []domain.TranscriptTurn
	if err := json.Unmarshal(rawTranscript, &turns); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: transcript is not an array of turns", domain.ErrInvalidArgument)
	}
	if turns == nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: transcript is not an array of turns", domain.ErrInvalidArgument)
	}

	status := "done"
	if raw, ok := data["status"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			status = s
		}
	}

	return domain.WebhookEvent{
		ConversationID: conversationID,
		Transcript:     turns,
		Status:         status,
	}, nil
}
