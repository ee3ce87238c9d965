// Package voice wraps the outbound-call provider API.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// CallResult identifies a call placed with the provider. ConversationID is
// the key later webhook events carry.
type CallResult struct {
	CallSID        string
	ConversationID string
}

// Dialer places outbound voice calls.
type Dialer interface {
	PlaceCall(ctx context.Context, toNumber string, vars map[string]string) (CallResult, error)
}

// Client is the ElevenLabs outbound-call client.
type Client struct {
	http       *resty.Client
	agentID    string
	fromNumber string
}

// New builds a Client against the given API base URL.
func New(baseURL, apiKey, agentID, fromNumber string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("xi-api-key", apiKey).
		SetTimeout(30 * time.Second)

	return &Client{http: c, agentID: agentID, fromNumber: fromNumber}
}

type outboundCallRequest struct {
	AgentID           string            `json:"agent_id"`
	AgentPhoneNumber  string            `json:"agent_phone_number_id"`
	ToNumber          string            `json:"to_number"`
	ConversationData  *conversationData `json:"conversation_initiation_client_data,omitempty"`
}

type conversationData struct {
	DynamicVariables map[string]string `json:"dynamic_variables,omitempty"`
}

type outboundCallResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

// PlaceCall asks the provider to dial toNumber. vars are passed through as
// dynamic variables for the agent prompt.
func (c *Client) PlaceCall(ctx context.Context, toNumber string, vars map[string]string) (CallResult, error) {
	body := outboundCallRequest{
		AgentID:          c.agentID,
		AgentPhoneNumber: c.fromNumber,
		ToNumber:         toNumber,
	}
	if len(vars) > 0 {
		body.ConversationData = &conversationData{DynamicVariables: vars}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/v1/convai/twilio/outbound-call")
	if err != nil {
		return CallResult{}, fmt.Errorf("outbound call request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return CallResult{}, fmt.Errorf("outbound call status %d: %s", resp.StatusCode(), resp.String())
	}

	var ocr outboundCallResponse
	if err := json.Unmarshal(resp.Body(), &ocr); err != nil {
		return CallResult{}, fmt.Errorf("decode response: %w", err)
	}
	if !ocr.Success {
		return CallResult{}, fmt.Errorf("outbound call rejected: %s", ocr.Message)
	}

	return CallResult{CallSID: ocr.CallSID, ConversationID: ocr.ConversationID}, nil
}
