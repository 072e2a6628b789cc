// Package events defines the envelope shared by every event recorded on an
// app's event stream. Concrete event families live with their domain
// (see internal/contents).
package events

// AppEvent is implemented by every event recorded for an app.
type AppEvent interface {
	// EventApp returns the identifier of the owning app.
	EventApp() string
}

// Envelope pairs an event payload with its position on the event stream.
// The stream sequence is assigned by the event log when the event is
// appended and increases monotonically per stream.
type Envelope struct {
	Payload        AppEvent
	StreamSequence int64
}
