// Package server exposes the assistant over HTTP: the LINE webhook the bot
// lives on, and a thin JSON API for other clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jeff-67/TonyStock/internal/agent"
	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// chatAssistant answers one user message within a session.
type chatAssistant interface {
	Handle(ctx context.Context, userText, sessionID string) (string, error)
}

// lineClient is the slice of the LINE Messaging API the webhook needs.
type lineClient interface {
	// ParseRequest validates the webhook signature and decodes the events.
	ParseRequest(r *http.Request) ([]*linebot.Event, error)

	// ReplyText answers a webhook event with one or more text messages.
	ReplyText(ctx context.Context, replyToken string, texts []string) error
}

// Server routes HTTP traffic to the assistant.
type Server struct {
	assistant chatAssistant
	line      lineClient
	cfg       config.ServerConfig
	logger    *slog.Logger
}

// New creates a Server. line may be nil, which disables the webhook route
// (the JSON API keeps working, useful for local runs without LINE
// credentials).
func New(assistant chatAssistant, line lineClient, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{assistant: assistant, line: line, cfg: cfg, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	if s.line != nil {
		mux.HandleFunc("POST /callback", s.handleLINECallback)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	// A client without a session gets one assigned so it can follow up.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := s.assistant.Handle(r.Context(), req.Message, sessionID)
	if err != nil {
		s.logger.Error("chat request failed", "session", sessionID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: agent.UserFacingMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: answer, SessionID: sessionID})
}

func (s *Server) handleLINECallback(w http.ResponseWriter, r *http.Request) {
	events, err := s.line.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			s.logger.Warn("webhook signature rejected")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.logger.Error("webhook parse failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for _, event := range events {
		s.handleLINEEvent(r.Context(), event)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLINEEvent(ctx context.Context, event *linebot.Event) {
	if event.Type != linebot.EventTypeMessage {
		return
	}
	message, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		return
	}

	sessionID := ""
	if event.Source != nil {
		sessionID = event.Source.UserID
	}

	reply, err := s.assistant.Handle(ctx, message.Text, sessionID)
	if err != nil {
		s.logger.Error("message handling failed", "session", sessionID, "error", err)
		reply = agent.UserFacingMessage(err)
	}

	chunks := chunkText(reply, s.cfg.ReplyChunkSize)
	if err := s.line.ReplyText(ctx, event.ReplyToken, chunks); err != nil {
		s.logger.Error("reply failed", "session", sessionID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
