// Package webchat exposes the triage bot over HTTP and WebSocket.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/campus-triage-bot/internal/bookings"
	"github.com/wolfman30/campus-triage-bot/internal/observability/metrics"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

const (
	chatApology    = "I apologize, but an error occurred. Please try again or contact support if the problem persists."
	bookingApology = "I apologize, but an error occurred while booking your appointment. Please try again or contact our support team for assistance."
)

// Chatter answers one chat message for a session.
type Chatter interface {
	Handle(ctx context.Context, sessionID, message string) (string, error)
}

// Booker books and confirms appointments for a session.
type Booker interface {
	Book(ctx context.Context, sessionID, preferredTime string) (*bookings.Result, error)
	Confirm(ctx context.Context, sessionID, answer string) (*bookings.Result, error)
	Reply(name string, res *bookings.Result, err error) string
}

// Handler serves the chat and booking endpoints.
type Handler struct {
	chat     Chatter
	booker   Booker
	metrics  *metrics.TriageMetrics
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMetrics records request latency and failures.
func WithMetrics(m *metrics.TriageMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithGatherer sets the registry /stats reads from.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// WithLogger sets the handler logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates the web chat handler.
func NewHandler(chat Chatter, booker Booker, opts ...Option) *Handler {
	h := &Handler{chat: chat, booker: booker}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}
	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	return h
}

// ChatRequest is the body of POST /chatbot.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// BookingRequest is the body of POST /book_appointment. Confirm answers a
// pending slot offer ("yes" or "no") instead of requesting a new time.
type BookingRequest struct {
	SessionID     string `json:"session_id"`
	PreferredTime string `json:"preferred_time"`
	Confirm       string `json:"confirm,omitempty"`
}

// Response is the body of every chat and booking reply.
type Response struct {
	Response string `json:"response"`
}

// Chat handles POST /chatbot.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveLatency("chatbot", time.Since(start).Seconds()) }()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, Response{Response: h.reply(r.Context(), sessionOrDefault(req.SessionID), req.Message)})
}

func (h *Handler) reply(ctx context.Context, sessionID, message string) string {
	text, err := h.chat.Handle(ctx, sessionID, message)
	if err != nil {
		h.logger.Error("webchat: chat failed", "session_id", sessionID, "error", err)
		return chatApology
	}
	return text
}

// Book handles POST /book_appointment.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveLatency("book_appointment", time.Since(start).Seconds()) }()

	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	var (
		res *bookings.Result
		err error
	)
	if strings.TrimSpace(req.Confirm) != "" {
		res, err = h.booker.Confirm(r.Context(), sessionID, req.Confirm)
	} else {
		res, err = h.booker.Book(r.Context(), sessionID, req.PreferredTime)
	}
	if err != nil && res == nil {
		h.logger.Error("webchat: booking failed", "session_id", sessionID, "error", err)
		writeJSON(w, Response{Response: bookingApology})
		return
	}
	name := ""
	if res != nil {
		name = res.Name
	}
	writeJSON(w, Response{Response: h.booker.Reply(name, res, err)})
}

// Stats handles GET /stats with a summary of the triage counters.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, metrics.TakeSnapshot(h.gatherer))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// InboundMessage is what a WebSocket client sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the server sends over the WebSocket.
type OutboundMessage struct {
	Type      string `json:"type"` // "session", "message", "pong"
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HandleWebSocket serves GET /ws?session=<id>. A missing session id gets a
// fresh random one, announced in a "session" message.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}
		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			start := time.Now()
			text := h.reply(r.Context(), sessionID, msg.Text)
			h.metrics.ObserveLatency("ws", time.Since(start).Seconds())
			if err := websocket.JSON.Send(conn, OutboundMessage{Type: "message", Text: text, SessionID: sessionID}); err != nil {
				h.logger.Debug("webchat: send failed", "session_id", sessionID, "error", err)
				return
			}
		}
	}
}

func sessionOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultSessionID
	}
	return id
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
