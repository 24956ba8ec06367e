package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academia-artes/course-assistant/internal/model"
	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/metrics"
)

// EventPublisher records lead lifecycle events.
type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event *model.LeadEvent) error
}

// Publishing wraps a Notifier, logging every attempt, recording metrics and
// publishing lifecycle events. A nil publisher only logs. Publish failures
// never affect the delivery result.
type Publishing struct {
	next      Notifier
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewPublishing creates the decorator.
func NewPublishing(next Notifier, publisher EventPublisher, log *logger.Logger) *Publishing {
	return &Publishing{
		next:      next,
		publisher: publisher,
		logger:    log.Component("notifier"),
		now:       time.Now,
	}
}

// Name returns the wrapped transport name.
func (p *Publishing) Name() string { return p.next.Name() }

// Notify delivers the lead through the wrapped notifier.
func (p *Publishing) Notify(ctx context.Context, lead *model.Lead) error {
	log := p.logger.With(
		zap.String("lead_id", lead.ID),
		zap.String("transport", p.next.Name()),
		zap.String("channel", string(lead.Channel)),
	)

	p.publish(ctx, log, lead, model.LeadEventCaptured, "")

	err := p.next.Notify(ctx, lead)
	metrics.RecordLeadDelivery(p.next.Name(), err)
	if err != nil {
		log.Error("lead delivery failed", zap.Error(err))
		p.publish(ctx, log, lead, model.LeadEventDeliveryFailed, err.Error())
		return err
	}

	log.Info("lead delivered")
	p.publish(ctx, log, lead, model.LeadEventDelivered, "")
	return nil
}

func (p *Publishing) publish(ctx context.Context, log *logger.Logger, lead *model.Lead, typ model.LeadEventType, reason string) {
	if p.publisher == nil {
		return
	}
	event := &model.LeadEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      typ,
		Lead:      *lead,
		Reason:    reason,
		Transport: p.next.Name(),
		CreatedAt: p.now(),
	}
	if err := p.publisher.PublishLeadEvent(ctx, event); err != nil {
		log.Warn("failed to publish lead event", zap.String("type", string(typ)), zap.Error(err))
	}
}
