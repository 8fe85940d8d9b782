package mqtt

import (
	"context"
	"sync"

	"github.com/sitewatch/sitewatch/domain/repositories"
)

// MockMessenger is an in-memory Messenger for tests.
type MockMessenger struct {
	mu         sync.Mutex
	handlers   map[string]repositories.MessageHandler
	published  []PublishedMessage
	PublishErr error
}

// PublishedMessage records one Publish call.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// NewMockMessenger creates an empty mock.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{handlers: make(map[string]repositories.MessageHandler)}
}

// Subscribe registers the handler.
func (m *MockMessenger) Subscribe(topic string, handler repositories.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

// Publish records the message.
func (m *MockMessenger) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.published = append(m.published, PublishedMessage{Topic: topic, Payload: payload})
	return nil
}

// Disconnect is a no-op.
func (m *MockMessenger) Disconnect() {}

// Deliver feeds a message to the subscribed handler, as the broker would.
func (m *MockMessenger) Deliver(topic string, payload []byte) bool {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return false
	}
	handler(topic, payload)
	return true
}

// Published returns a copy of everything published so far.
func (m *MockMessenger) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedMessage, len(m.published))
	copy(out, m.published)
	return out
}
