package memory

import (
	"context"

	"github.com/quillcms/quill/internal/pubsub"
)

// memoryPublisher implements pubsub.Publisher against the in-memory engine.
type memoryPublisher struct {
	engine *Engine
	opts   pubsub.PublisherOptions
}

func (p *memoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	fullSubject := subject
	if p.opts.SubjectPrefix != "" {
		fullSubject = p.opts.SubjectPrefix + "." + subject
	}
	return p.engine.publish(ctx, fullSubject, data)
}

func (p *memoryPublisher) Close() error {
	return nil
}
