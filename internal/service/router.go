package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/catalog"
	"github.com/academia-artes/course-assistant/internal/intake"
	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/metrics"
)

const (
	// Greeting is sent once per conversation, on its first non-command message.
	Greeting = "👋 ¡Hola! Soy tu asistente virtual. Cuéntame qué cursos te interesan y te ayudaré con gusto. Si deseas que te contacten directamente, pulsa el botón a continuación."

	// WelcomeBack answers the /inicio command.
	WelcomeBack = "¡Hola! ¿En qué puedo ayudarte hoy?"

	// ButtonStart replaces the first intake question when the contact button
	// starts the form.
	ButtonStart = "Perfecto. Comencemos con tu nombre completo."

	// ContactPrompt answers a message asking to be contacted.
	ContactPrompt = "Con gusto te ponemos en contacto con nuestro equipo. Pulsa el botón para dejar tus datos."

	// Unavailable is sent when conversation state cannot be read or written.
	Unavailable = "Lo siento, no pude procesar tu mensaje. Intenta nuevamente en unos minutos."
)

// contactPhrases short-circuit the query path into a contact prompt.
var contactPhrases = []string{
	"quiero que me contacten",
	"quiero ser contactado",
	"quiero ser contactada",
	"que me llamen",
	"quiero inscribirme",
	"me quiero inscribir",
	"hablar con alguien",
	"hablar con una persona",
	"hablar con un asesor",
}

// AsksForContact reports whether text contains a contact-intent phrase.
func AsksForContact(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range contactPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Route labels for metrics.
const (
	routeCommand = "command"
	routeIntake  = "intake"
	routeContact = "contact"
	routeQuery   = "query"
)

// ConversationState is the part of the store the router touches directly.
type ConversationState interface {
	MarkGreeted(ctx context.Context, key model.ConversationKey) (bool, error)
	IncrementUsage(ctx context.Context, key model.ConversationKey, topic string) (int64, error)
}

// ContextRetriever builds the context text for a set of locators.
type ContextRetriever interface {
	Retrieve(ctx context.Context, locators []string) string
}

// Router decides what happens to each inbound message. Turns for the same
// conversation are serialized; different conversations run concurrently.
type Router struct {
	state      ConversationState
	classifier *catalog.Classifier
	retriever  ContextRetriever
	responder  *Responder
	intake     *intake.Machine
	locks      *keyedMutex
	logger     *logger.Logger
}

// NewRouter creates a Router.
func NewRouter(
	state ConversationState,
	classifier *catalog.Classifier,
	retriever ContextRetriever,
	responder *Responder,
	machine *intake.Machine,
	log *logger.Logger,
) *Router {
	return &Router{
		state:      state,
		classifier: classifier,
		retriever:  retriever,
		responder:  responder,
		intake:     machine,
		locks:      newKeyedMutex(),
		logger:     log.Component("router"),
	}
}

// Welcome is the greeting offered on /inicio and when someone joins a chat.
func (r *Router) Welcome(first bool) model.Reply {
	text := WelcomeBack
	if first {
		text = Greeting
	}
	return model.Reply{Text: text, Actions: []model.Action{model.ContactAction()}}
}

// Handle processes one user message and returns the replies to send, in
// order. Messages starting with "/" are left to the transport's command
// handlers and yield no replies.
func (r *Router) Handle(ctx context.Context, channel model.Channel, id, text string) ([]model.Reply, error) {
	if strings.HasPrefix(text, "/") {
		metrics.MessagesTotal.WithLabelValues(string(channel), routeCommand).Inc()
		return nil, nil
	}

	key := model.Key(channel, id)
	unlock := r.locks.Lock(key.String())
	defer unlock()

	var replies []model.Reply

	first, err := r.state.MarkGreeted(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to mark greeted: %w", err)
	}
	if first {
		replies = append(replies, r.Welcome(true))
	}

	out, err := r.intake.Advance(ctx, key, text)
	switch {
	case err == nil:
		metrics.MessagesTotal.WithLabelValues(string(channel), routeIntake).Inc()
		return append(replies, out.Reply), nil
	case !errors.Is(err, intake.ErrNoIntake):
		return replies, fmt.Errorf("failed to advance intake: %w", err)
	}

	if AsksForContact(text) {
		metrics.MessagesTotal.WithLabelValues(string(channel), routeContact).Inc()
		return append(replies, model.Reply{
			Text:    ContactPrompt,
			Actions: []model.Action{model.ContactAction()},
		}), nil
	}

	metrics.MessagesTotal.WithLabelValues(string(channel), routeQuery).Inc()
	answer, err := r.answer(ctx, key, text)
	if err != nil {
		return replies, err
	}
	return append(replies, model.Reply{Text: answer}), nil
}

func (r *Router) answer(ctx context.Context, key model.ConversationKey, text string) (string, error) {
	sel := r.classifier.Classify(text)
	metrics.TopicsTotal.WithLabelValues(sel.Topic).Inc()

	usage, err := r.state.IncrementUsage(ctx, key, sel.Topic)
	if err != nil {
		return "", fmt.Errorf("failed to count usage: %w", err)
	}

	r.logger.WithConversation(string(key.Channel), string(key.ID)).Debug("answering query",
		zap.String("topic", sel.Topic),
		zap.Int("locators", len(sel.Locators)),
		zap.Int64("usage", usage),
	)

	contextText := r.retriever.Retrieve(ctx, sel.Locators)
	return r.responder.Respond(ctx, text, contextText, usage), nil
}

// StartIntake (re)starts the contact form for a conversation.
func (r *Router) StartIntake(ctx context.Context, channel model.Channel, id string) (model.Reply, error) {
	key := model.Key(channel, id)
	unlock := r.locks.Lock(key.String())
	defer unlock()

	return r.intake.Start(ctx, key)
}

// RetryLead re-attempts delivery of an intake whose delivery failed.
func (r *Router) RetryLead(ctx context.Context, channel model.Channel, id string) (intake.Outcome, error) {
	key := model.Key(channel, id)
	unlock := r.locks.Lock(key.String())
	defer unlock()

	return r.intake.Retry(ctx, key)
}

// SubmitContact delivers a lead from the web form.
func (r *Router) SubmitContact(ctx context.Context, channel model.Channel, id string, req *model.ContactRequest) (*model.Lead, error) {
	return r.intake.Submit(ctx, model.Key(channel, id), req)
}
