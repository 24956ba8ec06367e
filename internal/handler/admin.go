package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/middleware"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

// LeadRetrier re-attempts failed lead deliveries.
type LeadRetrier interface {
	RetryLead(ctx context.Context, channel model.Channel, id string) (intake.Outcome, error)
}

// AdminHandler serves operator endpoints.
type AdminHandler struct {
	retrier LeadRetrier
	logger  *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(retrier LeadRetrier, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		retrier: retrier,
		logger:  log.Component("admin"),
	}
}

// RetryLeadResponse is the response of the retry endpoint.
type RetryLeadResponse struct {
	Delivered bool   `json:"delivered"`
	LeadID    string `json:"lead_id,omitempty"`
}

// RetryLead handles POST /api/admin/leads/{channel}/{id}/retry.
func (h *AdminHandler) RetryLead(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateChannel(channel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateConversationID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.retrier.RetryLead(r.Context(), model.Channel(channel), id)
	switch {
	case errors.Is(err, intake.ErrNoIntake):
		writeError(w, http.StatusNotFound, "no intake for conversation")
		return
	case errors.Is(err, intake.ErrNotPending):
		writeError(w, http.StatusConflict, "intake is still collecting fields")
		return
	case err != nil:
		h.logger.Error("failed to retry lead", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retry lead")
		return
	}

	resp := RetryLeadResponse{Delivered: out.Delivered}
	if out.Lead != nil {
		resp.LeadID = out.Lead.ID
	}

	h.logger.Info("lead retry requested",
		zap.String("subject", middleware.GetSubject(r.Context())),
		zap.String("channel", channel),
		zap.String("conversation_id", id),
		zap.Bool("delivered", out.Delivered),
	)

	status := http.StatusOK
	if !out.Delivered {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}
