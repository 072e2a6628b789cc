package rules

import (
	"github.com/quillcms/quill/internal/contents"
	"github.com/quillcms/quill/pkg/model"
)

// EnrichedEventType discriminates enriched content events. The mapping from
// content event variants is total: every variant of the content event
// family maps to exactly one of these.
type EnrichedEventType string

const (
	EnrichedCreated       EnrichedEventType = "Created"
	EnrichedUpdated       EnrichedEventType = "Updated"
	EnrichedDeleted       EnrichedEventType = "Deleted"
	EnrichedPublished     EnrichedEventType = "Published"
	EnrichedUnpublished   EnrichedEventType = "Unpublished"
	EnrichedStatusChanged EnrichedEventType = "StatusChanged"
)

// EnrichedContentEvent is the denormalized, self-contained projection of a
// content change handed to delivery. Constructed fresh per invocation,
// never cached or reused across events.
type EnrichedContentEvent struct {
	Type EnrichedEventType `json:"type"`

	// Name is the display name used for human facing routing, e.g.
	// "ArticleUpdated". Backfill events use the ContentQueried(...) form.
	Name string `json:"name"`

	AppID     string            `json:"appId"`
	SchemaID  contents.NamedID  `json:"schemaId"`
	ContentID string            `json:"contentId"`
	Actor     string            `json:"actor"`
	Status    contents.Status   `json:"status,omitempty"`
	Data      model.ContentData `json:"data,omitempty"`

	// DataOld is the payload of the immediately preceding version. Only
	// populated for Updated events whose previous version could be loaded.
	DataOld model.ContentData `json:"dataOld,omitempty"`

	Version int64 `json:"version"`
}

// Vars exposes the event to condition expressions as a plain value bag
// under the "event" variable.
func (e *EnrichedContentEvent) Vars() map[string]interface{} {
	return map[string]interface{}{
		"event": map[string]interface{}{
			"type":       string(e.Type),
			"name":       e.Name,
			"appId":      e.AppID,
			"schemaId":   e.SchemaID.ID,
			"schemaName": e.SchemaID.Name,
			"contentId":  e.ContentID,
			"actor":      e.Actor,
			"status":     string(e.Status),
			"version":    e.Version,
			"data":       map[string]interface{}(e.Data),
			"dataOld":    map[string]interface{}(e.DataOld),
		},
	}
}
