package contents

import (
	"testing"

	"github.com/quillcms/quill/internal/events"
	"github.com/quillcms/quill/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope(t *testing.T) {
	base := EventBase{
		AppID:     "app-1",
		SchemaID:  NamedID{ID: "schema-1", Name: "article"},
		ContentID: "content-1",
		Actor:     "subject:alice",
	}

	tests := []struct {
		name    string
		payload Event
	}{
		{
			name:    "created",
			payload: &Created{EventBase: base, Data: model.ContentData{"title": "hello"}, Status: StatusDraft},
		},
		{
			name:    "updated",
			payload: &Updated{EventBase: base, Data: model.ContentData{"title": "hello v2"}},
		},
		{
			name:    "deleted",
			payload: &Deleted{EventBase: base},
		},
		{
			name:    "status changed",
			payload: &StatusChanged{EventBase: base, Change: StatusChangePublished, Status: StatusPublished},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := events.Envelope{Payload: tt.payload, StreamSequence: 42}

			data, err := EncodeEnvelope(in)
			require.NoError(t, err)

			out, err := DecodeEnvelope(data)
			require.NoError(t, err)

			assert.Equal(t, int64(42), out.StreamSequence)
			assert.Equal(t, tt.payload, out.Payload)
		})
	}
}

func TestEncodeEnvelopeRejectsForeignEvents(t *testing.T) {
	_, err := EncodeEnvelope(events.Envelope{Payload: fakeAppEvent{}})
	assert.Error(t, err)
}

func TestDecodeEnvelopeUnknownType(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"type":"archived","appId":"app-1"}`))
	assert.ErrorContains(t, err, "unknown content event type")
}

func TestDecodeEnvelopeInvalidJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{`))
	assert.Error(t, err)
}

// fakeAppEvent is an app event outside the content family.
type fakeAppEvent struct{}

func (fakeAppEvent) EventApp() string { return "app-1" }
