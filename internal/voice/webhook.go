package voice

import "github.com/callward/callward/internal/transcript"

// WebhookEvent is the provider's post-call payload.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

// WebhookData carries the conversation outcome and full transcript.
type WebhookData struct {
	ConversationID string            `json:"conversation_id"`
	AgentID        string            `json:"agent_id"`
	Status         string            `json:"status"`
	Transcript     []transcript.Turn `json:"transcript"`
	Metadata       WebhookMetadata   `json:"metadata"`
}

// WebhookMetadata is the subset of call metadata the service records.
type WebhookMetadata struct {
	StartTimeUnixSecs int64   `json:"start_time_unix_secs"`
	CallDurationSecs  float64 `json:"call_duration_secs"`
}

// Done reports whether the event marks the end of a conversation.
func (e WebhookEvent) Done() bool {
	return e.Type == "post_call_transcription"
}
