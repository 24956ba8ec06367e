package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/academia-artes/course-assistant/internal/model"
)

const (
	// StreamName is the name of the lead events stream.
	StreamName = "LEADS"

	// SubjectPrefix is the prefix for all lead subjects.
	SubjectPrefix = "leads"
)

// Publisher is the JetStream surface used by LeadStream.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// LeadStream publishes lead lifecycle events so captured contacts are kept
// even when email delivery fails.
type LeadStream struct {
	client *Client
	pub    Publisher
}

// NewLeadStream creates a lead stream on an open connection.
func NewLeadStream(client *Client) *LeadStream {
	return &LeadStream{client: client, pub: client.JetStream()}
}

// EnsureStream creates the LEADS stream if it does not exist yet.
func (s *LeadStream) EnsureStream(ctx context.Context) error {
	js := s.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		DenyDelete:  true,
		Description: "Captured leads and their delivery outcome",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// LeadSubject returns the subject for a lead event.
func LeadSubject(channel model.Channel, eventType model.LeadEventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, channel, eventType)
}

// PublishLeadEvent publishes event, de-duplicated by its id.
func (s *LeadStream) PublishLeadEvent(ctx context.Context, event *model.LeadEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lead event: %w", err)
	}

	subject := LeadSubject(event.Lead.Channel, event.Type)
	if _, err := s.pub.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish lead event: %w", err)
	}

	return nil
}
