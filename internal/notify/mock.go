package notify

import (
	"context"
	"sync"
)

// MockNotifier records sent messages for tests.
type MockNotifier struct {
	mu sync.Mutex

	// SendErr, when set, is returned from every Send.
	SendErr error

	sent   []Message
	closed bool
}

// NewMock creates a MockNotifier.
func NewMock() *MockNotifier {
	return &MockNotifier{}
}

// Name implements Notifier.
func (m *MockNotifier) Name() string { return "mock" }

// Send implements Notifier, recording the message.
func (m *MockNotifier) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close implements Notifier.
func (m *MockNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockNotifier) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Closed reports whether Close was called.
func (m *MockNotifier) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
