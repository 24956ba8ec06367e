package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academia-artes/course-assistant/internal/model"
)

type fakePublisher struct {
	subject string
	data    []byte
	opts    int
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.subject, f.data, f.opts = subject, data, len(opts)
	if f.err != nil {
		return nil, f.err
	}
	return &jetstream.PubAck{Stream: StreamName, Sequence: 1}, nil
}

func TestLeadSubject(t *testing.T) {
	assert.Equal(t, "leads.telegram.captured", LeadSubject(model.ChannelTelegram, model.LeadEventCaptured))
	assert.Equal(t, "leads.web.delivery_failed", LeadSubject(model.ChannelWeb, model.LeadEventDeliveryFailed))
}

func TestPublishLeadEvent(t *testing.T) {
	pub := &fakePublisher{}
	s := &LeadStream{pub: pub}

	event := &model.LeadEvent{
		ID:   "evt-1",
		Type: model.LeadEventDelivered,
		Lead: model.Lead{ID: "lead-1", Channel: model.ChannelWeb, Name: "Ana"},
	}
	require.NoError(t, s.PublishLeadEvent(context.Background(), event))

	assert.Equal(t, "leads.web.delivered", pub.subject)
	assert.Equal(t, 1, pub.opts)

	var got model.LeadEvent
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, "lead-1", got.Lead.ID)

	pub.err = errors.New("no responders")
	assert.ErrorContains(t, s.PublishLeadEvent(context.Background(), event), "no responders")
}
