// Package memory implements the pubsub interfaces in process, for tests and
// single-node development runs. It mirrors the JetStream semantics the
// production transport provides: subject wildcards, Nak redelivery and
// delivery counting.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quillcms/quill/internal/pubsub"
)

// Engine provides the public API for in-memory pubsub.
type Engine struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	closed        atomic.Bool
}

// subscription represents a single consumer's subscription.
type subscription struct {
	pattern string
	msgCh   chan pubsub.Message
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new in-memory pubsub engine.
func New() *Engine {
	return &Engine{subscriptions: make(map[string]*subscription)}
}

// NewPublisher creates an in-memory Publisher.
func (e *Engine) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &memoryPublisher{engine: e, opts: opts}, nil
}

// NewConsumer creates an in-memory Consumer.
func (e *Engine) NewConsumer(opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &memoryConsumer{engine: e, opts: opts}, nil
}

// Close shuts down the engine and all subscriptions.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, sub := range e.subscriptions {
		sub.cancel()
		close(sub.msgCh)
	}
	e.subscriptions = nil
	return nil
}

// IsClosed returns true if the engine is closed.
func (e *Engine) IsClosed() bool {
	return e.closed.Load()
}

// publish delivers a message to every matching subscription.
func (e *Engine) publish(ctx context.Context, subject string, data []byte) error {
	if e.IsClosed() {
		return ErrEngineClosed
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for pattern, sub := range e.subscriptions {
		if !matchSubject(pattern, subject) {
			continue
		}
		msg := &memoryMessage{
			data:         data,
			subject:      subject,
			timestamp:    time.Now(),
			numDelivered: 1,
			engine:       e,
			redeliveryCh: sub.msgCh,
			ctx:          sub.ctx,
		}
		select {
		case sub.msgCh <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.ctx.Done():
			// Subscription cancelled, skip.
		}
	}
	return nil
}

// subscribe registers a subscription for the pattern. Returns the message
// channel and an unsubscribe function.
func (e *Engine) subscribe(ctx context.Context, pattern string, bufSize int) (<-chan pubsub.Message, func(), error) {
	if e.IsClosed() {
		return nil, nil, ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.subscriptions[pattern] != nil {
		return nil, nil, ErrPatternSubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	msgCh := make(chan pubsub.Message, bufSize)

	sub := &subscription{
		pattern: pattern,
		msgCh:   msgCh,
		ctx:     subCtx,
		cancel:  cancel,
	}
	e.subscriptions[pattern] = sub

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.subscriptions[pattern] == sub {
			delete(e.subscriptions, pattern)
			cancel()
			close(msgCh)
		}
	}

	return msgCh, unsubscribe, nil
}
