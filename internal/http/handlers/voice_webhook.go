// Package handlers holds the HTTP-facing adapters that do not belong to a
// single domain package.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/internal/voice"
	"github.com/opencourt/receptionist/pkg/logging"
)

// VoiceToolEvent is the webhook payload the agent platform posts when its
// LLM invokes one of our tools mid-call.
type VoiceToolEvent struct {
	// EventType identifies the webhook event (e.g. "tool_call").
	EventType string `json:"event_type,omitempty"`
	// From is the caller's phone number (E.164).
	From string `json:"from,omitempty"`
	// To is the facility number that received the call (E.164).
	To string `json:"to,omitempty"`
	// Payload holds the tool invocation details.
	Payload VoiceToolPayload `json:"payload,omitempty"`
}

// VoiceToolPayload carries the tool call itself. ToolCallID must be echoed
// back so the platform can correlate the result.
type VoiceToolPayload struct {
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
}

// VoiceToolResponse is the JSON body returned to the agent platform.
type VoiceToolResponse struct {
	ToolCallID string          `json:"tool_call_id"`
	Result     json.RawMessage `json:"result"`
}

// VoiceToolErrorResponse is returned when the event itself cannot be
// processed.
type VoiceToolErrorResponse struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Error      string `json:"error"`
}

// facilityByNumberLookup resolves a facility id from a dialed number.
type facilityByNumberLookup interface {
	LookupByNumber(ctx context.Context, phoneNumber string) (uuid.UUID, error)
}

// VoiceWebhookHandler is the HTTP variant of the voice tool bridge, for
// agent platforms that deliver tool calls as webhooks instead of holding a
// websocket open. The dialed number selects the facility.
type VoiceWebhookHandler struct {
	facilities facilityByNumberLookup
	service    *booking.Service
	logger     *logging.Logger
}

func NewVoiceWebhookHandler(facilities facilityByNumberLookup, service *booking.Service, logger *logging.Logger) *VoiceWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceWebhookHandler{facilities: facilities, service: service, logger: logger}
}

// HandleToolCall is the handler for POST /webhooks/voice/tool-call.
func (h *VoiceWebhookHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("voice webhook: failed to read body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var event VoiceToolEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("voice webhook: failed to parse event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.logger.Info("voice webhook: received event",
		"event_type", event.EventType,
		"from", event.From,
		"to", event.To,
		"tool_name", event.Payload.ToolName,
	)

	if event.Payload.ToolName == "" {
		h.writeError(w, event.Payload.ToolCallID, "tool_name is required", http.StatusBadRequest)
		return
	}

	facilityID, err := h.facilities.LookupByNumber(ctx, event.To)
	if err != nil {
		if errors.Is(err, facility.ErrNotFound) {
			h.logger.Warn("voice webhook: no facility for number", "to", event.To)
			h.writeError(w, event.Payload.ToolCallID, "facility not found", http.StatusNotFound)
			return
		}
		h.logger.Error("voice webhook: facility lookup failed", "to", event.To, "error", err)
		h.writeError(w, event.Payload.ToolCallID, "internal error", http.StatusInternalServerError)
		return
	}

	dispatcher := voice.NewDispatcher(h.logger)
	voice.RegisterBookingTools(dispatcher, h.service, facilityID)
	result := dispatcher.Dispatch(ctx, event.Payload.ToolName, event.Payload.Arguments)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(VoiceToolResponse{
		ToolCallID: event.Payload.ToolCallID,
		Result:     result,
	})
}

func (h *VoiceWebhookHandler) writeError(w http.ResponseWriter, toolCallID, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(VoiceToolErrorResponse{
		ToolCallID: toolCallID,
		Error:      msg,
	})
}
