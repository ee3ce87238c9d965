// Package transcript scans structured conversation transcripts for tool
// invocations.
package transcript

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/model"
)

// ToolCall is a single named function-call entry inside a transcript turn,
// carrying its parameters as raw JSON.
type ToolCall struct {
	RequestID    string `json:"request_id"`
	ToolName     string `json:"tool_name"`
	ParamsAsJSON string `json:"params_as_json"`
}

// Turn is one entry of an ordered conversation transcript.
type Turn struct {
	Role           string     `json:"role"`
	Message        string     `json:"message"`
	TimeInCallSecs float64    `json:"time_in_call_secs"`
	ToolCalls      []ToolCall `json:"tool_calls,omitempty"`
}

// Extract scans turns in order and returns the tool invocations whose name
// matches toolName and whose JSON parameters parse. A parse failure drops
// that single invocation with a log line; the scan continues. Surviving
// invocations carry their position and timestamp so callers can order and
// deduplicate them.
func Extract(toolName string, turns []Turn, log zerolog.Logger) []model.ToolInvocation {
	var out []model.ToolInvocation
	for mi, turn := range turns {
		for ci, call := range turn.ToolCalls {
			if call.ToolName != toolName {
				continue
			}
			var params map[string]interface{}
			if err := json.Unmarshal([]byte(call.ParamsAsJSON), &params); err != nil {
				log.Warn().
					Err(err).
					Str("tool", call.ToolName).
					Str("request_id", call.RequestID).
					Int("message_index", mi).
					Int("call_index", ci).
					Msg("dropping tool invocation with unparseable params")
				continue
			}
			out = append(out, model.ToolInvocation{
				RequestID:      call.RequestID,
				ToolName:       call.ToolName,
				RawParams:      call.ParamsAsJSON,
				Params:         params,
				MessageIndex:   mi,
				CallIndex:      ci,
				TimeInCallSecs: turn.TimeInCallSecs,
			})
		}
	}
	return out
}
