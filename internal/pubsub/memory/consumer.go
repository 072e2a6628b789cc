package memory

import (
	"context"

	"github.com/quillcms/quill/internal/pubsub"
)

// memoryConsumer implements pubsub.Consumer against the in-memory engine.
type memoryConsumer struct {
	engine *Engine
	opts   pubsub.ConsumerOptions
}

func (c *memoryConsumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	pattern := c.opts.FilterSubject
	if pattern == "" {
		pattern = c.opts.StreamName + ".>"
	}

	bufSize := c.opts.ChannelBufSize
	if bufSize <= 0 {
		bufSize = pubsub.DefaultConsumerOptions().ChannelBufSize
	}

	msgCh, unsubscribe, err := c.engine.subscribe(ctx, pattern, bufSize)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return msgCh, nil
}
