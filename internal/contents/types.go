// Package contents defines the content data model shared by the rule
// subsystem: snapshots of content items and the closed family of content
// change events.
package contents

import (
	"errors"

	"github.com/quillcms/quill/pkg/model"
)

// ErrNotFound is returned when a content item (or the requested version of
// it) does not exist. Callers that can degrade gracefully must check for it
// with errors.Is.
var ErrNotFound = errors.New("content not found")

// NamedID pairs a stable identifier with its human readable name. The name
// is only used for display and routing, never for identity.
type NamedID struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Status is the publication state of a content item.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// StatusChange describes the direction of a status transition.
type StatusChange string

const (
	StatusChangePublished   StatusChange = "Published"
	StatusChangeUnpublished StatusChange = "Unpublished"
	StatusChangeChanged     StatusChange = "Changed"
)

// Snapshot is the materialized state of one content item at a specific
// version. Snapshots are owned by the storage layer and read-only here;
// multiple versions of the same content id coexist.
type Snapshot struct {
	AppID          string            `json:"appId"`
	ContentID      string            `json:"contentId"`
	SchemaID       NamedID           `json:"schemaId"`
	Data           model.ContentData `json:"data"`
	Status         Status            `json:"status"`
	CreatedBy      string            `json:"createdBy"`
	LastModifiedBy string            `json:"lastModifiedBy"`
	Version        int64             `json:"version"`
}
