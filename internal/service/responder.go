// Package service holds the assistant's routing and answering logic.
package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/llm"
	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/metrics"
	"github.com/academia-artes/course-assistant/pkg/tracing"
)

const (
	// Persona is the fixed instruction sent ahead of the retrieved context.
	Persona = "Eres un asistente experto en orientar a estudiantes sobre los cursos y servicios ofrecidos por la Academia Nacional de Artes. Usa solo la información proporcionada."

	// Apology replaces the answer when the completion call fails.
	Apology = "Lo siento, hubo un error al generar la respuesta."

	// CallToAction is appended to answers when the user looks ready to enroll.
	CallToAction = "\n\n👉 Si deseas concretar tu participación o recibir más información personalizada, puedes completar el formulario de contacto con /quiero_contacto o pulsar \"📬 Quiero ser contactado\" con el comando /inicio."

	DefaultCompletionTimeout = 30 * time.Second
	DefaultCTAThreshold      = 3
)

// triggerWords mark a question asking for enrollment details.
var triggerWords = []string{
	"precio",
	"valor",
	"horario",
	"clase",
	"inscripción",
	"inscripcion",
	"matrícula",
	"matricula",
}

// WantsDetails reports whether text mentions a trigger word.
func WantsDetails(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range triggerWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ResponderConfig configures a Responder.
type ResponderConfig struct {
	Model        string
	Timeout      time.Duration
	CTAThreshold int64
}

// Responder turns a question and its context into an answer.
type Responder struct {
	client llm.Client
	cfg    ResponderConfig
	logger *logger.Logger
}

// NewResponder creates a Responder. Zero config fields take defaults.
func NewResponder(client llm.Client, cfg ResponderConfig, log *logger.Logger) *Responder {
	if cfg.Model == "" {
		cfg.Model = client.DefaultModel()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCompletionTimeout
	}
	if cfg.CTAThreshold <= 0 {
		cfg.CTAThreshold = DefaultCTAThreshold
	}
	return &Responder{
		client: client,
		cfg:    cfg,
		logger: log.Component("responder"),
	}
}

// Respond answers text using contextText. usage is the caller's count of
// answered turns for the conversation and topic, this one included. Failures
// never propagate: the caller gets Apology instead.
func (r *Responder) Respond(ctx context.Context, text, contextText string, usage int64) string {
	ctx, span := tracing.Start(ctx, "responder.Respond",
		attribute.String("llm.provider", r.client.Name()),
		attribute.String("llm.model", r.cfg.Model),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Complete(ctx, &llm.CompletionRequest{
		Model: r.cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: Persona},
			{Role: llm.RoleSystem, Content: contextText},
			{Role: llm.RoleUser, Content: text},
		},
	})
	elapsed := time.Since(start).Seconds()

	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = llm.ErrNoChoices
	}
	if err != nil {
		metrics.RecordCompletion(r.cfg.Model, "error", elapsed, 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("completion failed",
			zap.String("provider", r.client.Name()),
			zap.String("model", r.cfg.Model),
			zap.Error(err),
		)
		return Apology
	}
	metrics.RecordCompletion(r.cfg.Model, "success", elapsed, resp.TokensIn, resp.TokensOut)

	answer := resp.Content
	if r.suggestContact(text, usage) {
		metrics.CallToActionTotal.Inc()
		answer += CallToAction
	}
	return answer
}

// suggestContact requires both a repeated topic and a detail request.
func (r *Responder) suggestContact(text string, usage int64) bool {
	return usage >= r.cfg.CTAThreshold && WantsDetails(text)
}
