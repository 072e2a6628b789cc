package memory

import (
	"context"
	"sync"
	"time"

	"github.com/quillcms/quill/internal/pubsub"
)

// memoryMessage implements pubsub.Message for in-memory delivery.
type memoryMessage struct {
	data         []byte
	subject      string
	timestamp    time.Time
	numDelivered uint64

	engine       *Engine
	redeliveryCh chan pubsub.Message
	ctx          context.Context

	mu     sync.Mutex
	acked  bool
	naked  bool
	termed bool
}

func (m *memoryMessage) Data() []byte {
	return m.data
}

func (m *memoryMessage) Subject() string {
	return m.subject
}

// Ack acknowledges successful processing. Idempotent.
func (m *memoryMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acked || m.naked || m.termed {
		return nil
	}
	m.acked = true
	return nil
}

// Nak requeues the message immediately without blocking. If the channel is
// full or closed the message is dropped.
func (m *memoryMessage) Nak() error {
	m.mu.Lock()
	if m.acked || m.termed || m.naked {
		m.mu.Unlock()
		return nil
	}
	m.naked = true
	m.numDelivered++
	m.mu.Unlock()

	defer func() {
		recover() // Send on a channel closed by unsubscribe.
	}()

	select {
	case m.redeliveryCh <- m:
	case <-m.ctx.Done():
	default:
		// Channel full, drop rather than block.
	}
	return nil
}

// NakWithDelay requeues the message after a delay.
func (m *memoryMessage) NakWithDelay(delay time.Duration) error {
	m.mu.Lock()
	if m.acked || m.termed || m.naked {
		m.mu.Unlock()
		return nil
	}
	m.naked = true
	m.numDelivered++
	m.mu.Unlock()

	time.AfterFunc(delay, func() {
		if m.engine.IsClosed() {
			return
		}
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		// Clear the naked flag so the redelivered copy can be acked.
		m.mu.Lock()
		m.naked = false
		m.mu.Unlock()

		select {
		case m.redeliveryCh <- m:
		case <-m.ctx.Done():
		}
	})
	return nil
}

// Term terminates the message without redelivery.
func (m *memoryMessage) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acked || m.naked || m.termed {
		return nil
	}
	m.termed = true
	return nil
}

// Metadata returns delivery metadata.
func (m *memoryMessage) Metadata() (pubsub.MessageMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pubsub.MessageMetadata{
		NumDelivered: m.numDelivered,
		Timestamp:    m.timestamp,
		Subject:      m.subject,
	}, nil
}
