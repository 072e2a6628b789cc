package memory

import "errors"

var (
	// ErrEngineClosed is returned for operations on a closed engine.
	ErrEngineClosed = errors.New("pubsub engine is closed")

	// ErrPatternSubscribed is returned when a pattern already has a
	// subscription.
	ErrPatternSubscribed = errors.New("pattern already subscribed")
)
