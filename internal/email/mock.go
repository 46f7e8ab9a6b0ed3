package email

import "sync"

// MockProvider records messages instead of sending them. Used in tests
// and when email is disabled in config.
type MockProvider struct {
	mu   sync.Mutex
	sent []*Message

	// FailWith, when set, is returned by every Send call.
	FailWith error
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Send(msg *Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.sent = append(p.sent, msg)
	return nil
}

// Reset drops the recorded messages.
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

// Sent returns a snapshot of the recorded messages.
func (p *MockProvider) Sent() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Message, len(p.sent))
	copy(out, p.sent)
	return out
}
