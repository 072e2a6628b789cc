package pubsub

// StorageType defines the storage backend for streams.
type StorageType int

const (
	// MemoryStorage keeps stream data in memory (default).
	MemoryStorage StorageType = iota
	// FileStorage persists stream data on disk.
	FileStorage
)

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// StreamName is the stream to publish to; it is created if missing.
	StreamName string

	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// Storage is the storage type for the stream.
	Storage StorageType
}

// ConsumerOptions configures consumer behavior.
type ConsumerOptions struct {
	// StreamName is the stream to consume from.
	StreamName string

	// ConsumerName is the durable consumer name.
	ConsumerName string

	// FilterSubject filters messages by subject pattern. Defaults to every
	// subject under the stream name.
	FilterSubject string

	// ChannelBufSize is the buffer size for the message channel.
	ChannelBufSize int

	// Storage is the storage type for the stream.
	Storage StorageType
}

// DefaultConsumerOptions returns ConsumerOptions with sensible defaults.
func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		ChannelBufSize: 100,
	}
}
