package contents

import (
	"github.com/quillcms/quill/internal/events"
	"github.com/quillcms/quill/pkg/model"
)

// Event is the closed family of content change events. The unexported
// marker keeps the set closed to this package, so every switch over the
// family can treat it as exhaustive: Created, Updated, Deleted and
// StatusChanged are the only variants.
type Event interface {
	events.AppEvent
	Base() *EventBase
	isContentEvent()
}

// EventBase carries the fields shared by every content change event.
type EventBase struct {
	AppID     string
	SchemaID  NamedID
	ContentID string
	Actor     string
}

func (b *EventBase) EventApp() string { return b.AppID }

func (b *EventBase) Base() *EventBase { return b }

func (*EventBase) isContentEvent() {}

// Created records that a content item was created.
type Created struct {
	EventBase

	Data   model.ContentData
	Status Status
}

// Updated records that the data payload of a content item changed.
type Updated struct {
	EventBase

	Data model.ContentData
}

// Deleted records that a content item was removed.
type Deleted struct {
	EventBase
}

// StatusChanged records a publication state transition.
type StatusChanged struct {
	EventBase

	Change StatusChange
	Status Status
}
