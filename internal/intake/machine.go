// Package intake implements the guided contact form: one field per turn,
// validated, then delivered as a lead.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/internal/notifier"
	"github.com/academia-artes/course-assistant/internal/store"
	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/metrics"
)

var (
	// ErrNoIntake is returned when a conversation has no intake in progress.
	ErrNoIntake = errors.New("intake: no intake in progress")
	// ErrNotPending is returned by Retry when the intake is still collecting fields.
	ErrNotPending = errors.New("intake: not awaiting delivery")
)

// Repository is the part of the conversation store the machine needs.
type Repository interface {
	GetIntake(ctx context.Context, key model.ConversationKey) (*model.IntakeRecord, error)
	SaveIntake(ctx context.Context, key model.ConversationKey, rec *model.IntakeRecord) error
	DeleteIntake(ctx context.Context, key model.ConversationKey) error
}

// Outcome describes the result of one intake turn.
type Outcome struct {
	Reply model.Reply
	// Step is the step the record is at after the turn.
	Step model.IntakeStep
	// Advanced is true when the input was accepted.
	Advanced bool
	// Delivered is true when the lead reached the notifier and the record
	// was removed.
	Delivered bool
	Lead      *model.Lead
}

// Machine drives intakes. Callers must serialize calls for the same
// conversation.
type Machine struct {
	repo     Repository
	notifier notifier.Notifier
	logger   *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewMachine creates a Machine.
func NewMachine(repo Repository, n notifier.Notifier, log *logger.Logger) *Machine {
	return &Machine{
		repo:     repo,
		notifier: n,
		logger:   log.Component("intake"),
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Start (re)initializes the intake at the first step, discarding any record
// already in progress.
func (m *Machine) Start(ctx context.Context, key model.ConversationKey) (model.Reply, error) {
	if err := m.repo.SaveIntake(ctx, key, model.NewIntakeRecord(m.now())); err != nil {
		return model.Reply{}, fmt.Errorf("failed to start intake: %w", err)
	}
	metrics.IntakeStepsTotal.WithLabelValues("start", "accepted").Inc()
	m.logger.WithConversation(string(key.Channel), string(key.ID)).Info("intake started")
	return model.Reply{Text: Question(model.StepName)}, nil
}

// Advance validates text against the current step. Accepted input moves the
// record forward; rejected input re-prompts the same step. Accepting the
// final field delivers the lead synchronously. A record whose delivery
// failed retries delivery on any input.
func (m *Machine) Advance(ctx context.Context, key model.ConversationKey, text string) (Outcome, error) {
	rec, err := m.load(ctx, key)
	if err != nil {
		return Outcome{}, err
	}

	if rec.Step == model.StepComplete {
		return m.deliver(ctx, key, rec)
	}

	step := rec.Step
	if !step.Valid() {
		return Outcome{}, fmt.Errorf("intake is at unknown step %q", step)
	}

	if !apply(rec, step, strings.TrimSpace(text)) {
		metrics.IntakeStepsTotal.WithLabelValues(string(step), "rejected").Inc()
		return Outcome{
			Reply: model.Reply{Text: rejectedText(step)},
			Step:  step,
		}, nil
	}
	metrics.IntakeStepsTotal.WithLabelValues(string(step), "accepted").Inc()

	rec.Step = step.Next()
	if rec.Step == model.StepComplete {
		return m.deliver(ctx, key, rec)
	}

	if err := m.repo.SaveIntake(ctx, key, rec); err != nil {
		return Outcome{}, fmt.Errorf("failed to save intake: %w", err)
	}

	return Outcome{
		Reply:    model.Reply{Text: advancedText(step, rec.Step)},
		Step:     rec.Step,
		Advanced: true,
	}, nil
}

// Retry re-attempts delivery of an intake whose fields are all collected.
func (m *Machine) Retry(ctx context.Context, key model.ConversationKey) (Outcome, error) {
	rec, err := m.load(ctx, key)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Step != model.StepComplete {
		return Outcome{}, ErrNotPending
	}
	return m.deliver(ctx, key, rec)
}

// load returns the pending record of key. A record already delivered is
// removed and reported as ErrNoIntake.
func (m *Machine) load(ctx context.Context, key model.ConversationKey) (*model.IntakeRecord, error) {
	rec, err := m.repo.GetIntake(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoIntake
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load intake: %w", err)
	}
	if rec.Delivered {
		if err := m.repo.DeleteIntake(ctx, key); err != nil {
			m.logger.WithConversation(string(key.Channel), string(key.ID)).Warn("failed to delete delivered intake", zap.Error(err))
		}
		return nil, ErrNoIntake
	}
	return rec, nil
}

// Submit delivers a lead collected outside the guided flow, such as the web
// contact form. It does not touch the conversation's intake.
func (m *Machine) Submit(ctx context.Context, key model.ConversationKey, req *model.ContactRequest) (*model.Lead, error) {
	rec, err := ValidateContact(req)
	if err != nil {
		return nil, err
	}

	lead := rec.Lead(key, m.newID(), m.now())
	if err := m.notifier.Notify(ctx, lead); err != nil {
		return lead, fmt.Errorf("failed to deliver lead: %w", err)
	}
	return lead, nil
}

// deliver hands the completed record to the notifier. On success the record
// is deleted, or marked delivered when the delete fails; on failure it is
// kept at StepComplete so the next turn retries under the same lead id.
func (m *Machine) deliver(ctx context.Context, key model.ConversationKey, rec *model.IntakeRecord) (Outcome, error) {
	log := m.logger.WithConversation(string(key.Channel), string(key.ID))

	rec.Step = model.StepComplete
	rec.Attempts++
	if rec.LeadID == "" {
		rec.LeadID = m.newID()
	}
	lead := rec.Lead(key, rec.LeadID, m.now())

	if err := m.notifier.Notify(ctx, lead); err != nil {
		log.Error("lead delivery failed, keeping intake",
			zap.Int("attempts", rec.Attempts),
			zap.Error(err),
		)
		if saveErr := m.repo.SaveIntake(ctx, key, rec); saveErr != nil {
			return Outcome{}, fmt.Errorf("failed to keep undelivered intake: %w", errors.Join(err, saveErr))
		}
		return Outcome{
			Reply:    model.Reply{Text: MsgDeliveryFailed},
			Step:     model.StepComplete,
			Advanced: true,
			Lead:     lead,
		}, nil
	}

	if err := m.repo.DeleteIntake(ctx, key); err != nil {
		rec.Delivered = true
		if saveErr := m.repo.SaveIntake(ctx, key, rec); saveErr != nil {
			return Outcome{}, fmt.Errorf("failed to clear delivered intake: %w", errors.Join(err, saveErr))
		}
		log.Warn("failed to delete delivered intake, marked as delivered", zap.Error(err))
	}
	log.Info("intake delivered", zap.String("lead_id", lead.ID), zap.Int("attempts", rec.Attempts))

	return Outcome{
		Reply:     model.Reply{Text: MsgDelivered},
		Step:      model.StepComplete,
		Advanced:  true,
		Delivered: true,
		Lead:      lead,
	}, nil
}
