package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/middleware"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/service"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

// Asker answers chat messages.
type Asker interface {
	Handle(ctx context.Context, channel model.Channel, id, text string) ([]model.Reply, error)
	StartIntake(ctx context.Context, channel model.Channel, id string) (model.Reply, error)
	Welcome(first bool) model.Reply
}

// AskHandler serves the web widget's chat endpoint.
type AskHandler struct {
	router Asker
	logger *logger.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(router Asker, log *logger.Logger) *AskHandler {
	return &AskHandler{
		router: router,
		logger: log.Component("ask"),
	}
}

// Ask handles POST /api/ask. The conversation is keyed by the "ip" field
// when present, otherwise by the client address. Chat commands and the
// contact button are handled here, the way the Telegram bot handles them.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := strings.TrimSpace(req.IP)
	if id == "" {
		id = clientIP(r)
	}

	if req.Action != "" {
		if req.Action != model.ActionStartContact {
			writeError(w, http.StatusBadRequest, "unknown action")
			return
		}
		h.startIntake(w, r, id, service.ButtonStart)
		return
	}

	if err := middleware.ValidateMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if name, ok := commandName(req.Message); ok {
		switch name {
		case model.CommandContact:
			h.startIntake(w, r, id, "")
		default:
			writeJSON(w, http.StatusOK, toAskResponse([]model.Reply{h.router.Welcome(false)}))
		}
		return
	}

	replies, err := h.router.Handle(r.Context(), model.ChannelWeb, id, req.Message)
	if err != nil {
		h.logFailure(r, id, "failed to handle message", err)
		replies = append(replies, model.Reply{Text: service.Unavailable})
	}

	writeJSON(w, http.StatusOK, toAskResponse(replies))
}

// startIntake restarts the contact form. A non-empty prompt replaces the
// first question.
func (h *AskHandler) startIntake(w http.ResponseWriter, r *http.Request, id, prompt string) {
	reply, err := h.router.StartIntake(r.Context(), model.ChannelWeb, id)
	if err != nil {
		h.logFailure(r, id, "failed to start intake", err)
		reply = model.Reply{Text: service.Unavailable}
	} else if prompt != "" {
		reply.Text = prompt
	}
	writeJSON(w, http.StatusOK, toAskResponse([]model.Reply{reply}))
}

func (h *AskHandler) logFailure(r *http.Request, id, msg string, err error) {
	h.logger.Error(msg,
		zap.String("conversation_id", id),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Error(err),
	)
}

// commandName returns the lowercased command of a "/name[@bot] args" message.
func commandName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := text[1:]
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), true
}

func toAskResponse(replies []model.Reply) model.AskResponse {
	texts := make([]string, 0, len(replies))
	var actions []model.Action
	for _, r := range replies {
		texts = append(texts, r.Text)
		actions = append(actions, r.Actions...)
	}
	return model.AskResponse{
		Reply:   strings.Join(texts, "\n\n"),
		Actions: actions,
	}
}
