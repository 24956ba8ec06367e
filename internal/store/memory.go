package store

import (
	"context"
	"sync"

	"github.com/academia-artes/course-assistant/internal/model"
)

// Memory is a process-lifetime Store. A restart discards all state.
type Memory struct {
	mu      sync.Mutex
	intakes map[model.ConversationKey]model.IntakeRecord
	greeted map[model.ConversationKey]struct{}
	usage   map[model.ConversationKey]map[string]int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		intakes: make(map[model.ConversationKey]model.IntakeRecord),
		greeted: make(map[model.ConversationKey]struct{}),
		usage:   make(map[model.ConversationKey]map[string]int64),
	}
}

// GetIntake returns a copy of the pending intake.
func (m *Memory) GetIntake(_ context.Context, key model.ConversationKey) (*model.IntakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.intakes[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// SaveIntake stores a copy of rec.
func (m *Memory) SaveIntake(_ context.Context, key model.ConversationKey, rec *model.IntakeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intakes[key] = *rec
	return nil
}

// DeleteIntake removes the pending intake.
func (m *Memory) DeleteIntake(_ context.Context, key model.ConversationKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.intakes, key)
	return nil
}

// MarkGreeted records the greeting.
func (m *Memory) MarkGreeted(_ context.Context, key model.ConversationKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.greeted[key]; ok {
		return false, nil
	}
	m.greeted[key] = struct{}{}
	return true, nil
}

// IncrementUsage bumps the usage counter.
func (m *Memory) IncrementUsage(_ context.Context, key model.ConversationKey, topic string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics, ok := m.usage[key]
	if !ok {
		topics = make(map[string]int64)
		m.usage[key] = topics
	}
	topics[topic]++
	return topics[topic], nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
