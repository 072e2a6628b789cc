package contents

import (
	"encoding/json"
	"fmt"

	"github.com/quillcms/quill/internal/events"
	"github.com/quillcms/quill/pkg/model"
)

// Wire tags for the content event union. Stored in the event log, do not
// rename.
const (
	wireCreated       = "created"
	wireUpdated       = "updated"
	wireDeleted       = "deleted"
	wireStatusChanged = "statusChanged"
)

type wireEvent struct {
	Type           string            `json:"type"`
	AppID          string            `json:"appId"`
	SchemaID       NamedID           `json:"schemaId"`
	ContentID      string            `json:"contentId"`
	Actor          string            `json:"actor"`
	Data           model.ContentData `json:"data,omitempty"`
	Status         Status            `json:"status,omitempty"`
	Change         StatusChange      `json:"change,omitempty"`
	StreamSequence int64             `json:"streamSequence"`
}

// EncodeEnvelope serializes a content event envelope for transport. The
// payload must belong to the content event family.
func EncodeEnvelope(env events.Envelope) ([]byte, error) {
	ev, ok := env.Payload.(Event)
	if !ok {
		return nil, fmt.Errorf("not a content event: %T", env.Payload)
	}

	base := ev.Base()
	w := wireEvent{
		AppID:          base.AppID,
		SchemaID:       base.SchemaID,
		ContentID:      base.ContentID,
		Actor:          base.Actor,
		StreamSequence: env.StreamSequence,
	}

	switch e := ev.(type) {
	case *Created:
		w.Type = wireCreated
		w.Data = e.Data
		w.Status = e.Status
	case *Updated:
		w.Type = wireUpdated
		w.Data = e.Data
	case *Deleted:
		w.Type = wireDeleted
	case *StatusChanged:
		w.Type = wireStatusChanged
		w.Change = e.Change
		w.Status = e.Status
	default:
		return nil, fmt.Errorf("unknown content event variant: %T", ev)
	}

	return json.Marshal(w)
}

// DecodeEnvelope deserializes a content event envelope produced by
// EncodeEnvelope.
func DecodeEnvelope(data []byte) (events.Envelope, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return events.Envelope{}, fmt.Errorf("decode content event: %w", err)
	}

	base := EventBase{
		AppID:     w.AppID,
		SchemaID:  w.SchemaID,
		ContentID: w.ContentID,
		Actor:     w.Actor,
	}

	var payload Event
	switch w.Type {
	case wireCreated:
		payload = &Created{EventBase: base, Data: w.Data, Status: w.Status}
	case wireUpdated:
		payload = &Updated{EventBase: base, Data: w.Data}
	case wireDeleted:
		payload = &Deleted{EventBase: base}
	case wireStatusChanged:
		payload = &StatusChanged{EventBase: base, Change: w.Change, Status: w.Status}
	default:
		return events.Envelope{}, fmt.Errorf("unknown content event type: %q", w.Type)
	}

	return events.Envelope{Payload: payload, StreamSequence: w.StreamSequence}, nil
}
