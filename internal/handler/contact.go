package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/middleware"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

// Response messages of POST /api/contacto.
const (
	ContactSent          = "Mensaje enviado correctamente."
	ContactMissingFields = "Faltan campos obligatorios: "
	ContactInvalidField  = "El campo no es válido: "
	ContactFailed        = "No se pudo enviar el mensaje. Intenta nuevamente más tarde."
)

// ContactSubmitter delivers leads from the web form.
type ContactSubmitter interface {
	SubmitContact(ctx context.Context, channel model.Channel, id string, req *model.ContactRequest) (*model.Lead, error)
}

// ContactHandler serves the web contact form.
type ContactHandler struct {
	submitter ContactSubmitter
	logger    *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(submitter ContactSubmitter, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		submitter: submitter,
		logger:    log.Component("contact"),
	}
}

// Submit handles POST /api/contacto.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ContactResponse{Message: "invalid request body"})
		return
	}

	if missing := intake.MissingContactFields(&req); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, model.ContactResponse{
			Message: ContactMissingFields + strings.Join(missing, ", "),
		})
		return
	}

	lead, err := h.submitter.SubmitContact(r.Context(), model.ChannelWeb, clientIP(r), &req)
	var fieldErr *intake.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, model.ContactResponse{
			Message: ContactInvalidField + fieldErr.Field,
		})
	case err != nil:
		h.logger.Error("failed to deliver contact form",
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, model.ContactResponse{Message: ContactFailed})
	default:
		h.logger.Info("contact form delivered", zap.String("lead_id", lead.ID))
		writeJSON(w, http.StatusOK, model.ContactResponse{OK: true, Message: ContactSent})
	}
}
