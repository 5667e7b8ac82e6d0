package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/session"
)

// Assistant is the single entry point the messaging and API layers consume:
// one user message in, one synthesized answer out. It owns session
// rehydration and persistence around the orchestration loop.
type Assistant struct {
	loop     *Loop
	sessions session.Store
	logger   *slog.Logger
}

// NewAssistant wires an Assistant. sessions may be nil, in which case every
// message starts a fresh conversation.
func NewAssistant(loop *Loop, sessions session.Store, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{loop: loop, sessions: sessions, logger: logger}
}

// Handle answers one user message. A non-empty sessionID resumes that
// session's stored history and persists the extended history on success.
func (a *Assistant) Handle(ctx context.Context, userText, sessionID string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", &LoopError{Reason: ReasonMalformedModelResponse, Err: errors.New("empty user message")}
	}

	conv := NewConversation()
	if sessionID != "" && a.sessions != nil {
		turns, err := a.sessions.Load(ctx, sessionID)
		if err != nil {
			// A broken session store should not take the bot down; start clean.
			a.logger.Error("failed to load session, starting fresh", "session", sessionID, "error", err)
		} else {
			conv = Rehydrate(turns)
		}
	}

	conv.Append(models.Turn{Role: models.RoleUser, Content: userText})

	answer, err := a.loop.Run(ctx, conv)
	if err != nil {
		return "", err
	}

	if sessionID != "" && a.sessions != nil {
		if err := a.sessions.Save(ctx, sessionID, conv.History()); err != nil {
			a.logger.Error("failed to persist session", "session", sessionID, "error", err)
		}
	}

	return answer, nil
}

// User-facing replies. Internal failure codes stay in logs; users only see
// whether retrying is worthwhile.
const (
	userMessageTransient = "Something went wrong while researching that. Please try again in a moment."
	userMessagePermanent = "I could not complete that request."
)

// UserFacingMessage maps an internal failure to the reply shown to the user.
func UserFacingMessage(err error) string {
	var loopErr *LoopError
	if errors.As(err, &loopErr) && loopErr.Reason.Transient() {
		return userMessageTransient
	}
	return userMessagePermanent
}
