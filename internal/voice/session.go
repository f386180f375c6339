package voice

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/pkg/logging"
)

// ToolCall is one inbound frame from the agent.
type ToolCall struct {
	Type       string          `json:"type"` // "tool_call", "ping"
	ToolCallID string          `json:"tool_call_id"`
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
}

// ToolResult is the answering frame. Result is always present, carrying
// either the tool's output or an {"error": ...} payload.
type ToolResult struct {
	Type       string          `json:"type"` // "tool_result", "pong", "error"
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// SessionHandler upgrades agent connections to websockets and serves tool
// calls for the duration of one phone call. Each session is pinned to the
// facility whose number was dialed.
type SessionHandler struct {
	service *booking.Service
	logger  *logging.Logger

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session // session id -> active connection
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func NewSessionHandler(service *booking.Service, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The agent platform connects server-to-server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// ActiveSessions reports how many calls are currently connected.
func (h *SessionHandler) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleStream handles GET /voice/stream?facility=<uuid>.
func (h *SessionHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	facilityID, err := uuid.Parse(r.URL.Query().Get("facility"))
	if err != nil {
		http.Error(w, "facility parameter must be a uuid", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("voice stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	dispatcher := NewDispatcher(h.logger)
	RegisterBookingTools(dispatcher, h.service, facilityID)

	sessionID := uuid.NewString()
	sess := &session{conn: conn}
	h.mu.Lock()
	h.sessions[sessionID] = sess
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
	}()

	h.logger.Info("voice session opened", "session_id", sessionID, "facility_id", facilityID)
	defer h.logger.Info("voice session closed", "session_id", sessionID)

	for {
		var call ToolCall
		if err := conn.ReadJSON(&call); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("voice session read failed", "session_id", sessionID, "error", err)
			}
			return
		}

		switch call.Type {
		case "ping":
			sess.send(h.logger, ToolResult{Type: "pong"})
		case "tool_call":
			result := dispatcher.Dispatch(r.Context(), call.Name, call.Arguments)
			sess.send(h.logger, ToolResult{
				Type:       "tool_result",
				ToolCallID: call.ToolCallID,
				Result:     result,
			})
		default:
			sess.send(h.logger, ToolResult{
				Type:    "error",
				Message: "unsupported frame type " + call.Type,
			})
		}
	}
}

func (s *session) send(logger *logging.Logger, msg ToolResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		logger.Debug("voice session write failed", "error", err)
	}
}
