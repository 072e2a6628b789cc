package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillcms/quill/internal/contents"
	"github.com/quillcms/quill/internal/events"
)

// ContentLoader loads one content snapshot at a specific version.
type ContentLoader interface {
	Get(ctx context.Context, app, contentID string, version int64) (*contents.Snapshot, error)
}

// ContentRepository streams the current content of an app. Only used for
// backfill.
type ContentRepository interface {
	StreamAll(ctx context.Context, app string, schemaIDs []string) (<-chan contents.Snapshot, error)
}

// ConditionEvaluator evaluates a trigger condition against a variable bag.
// It must be side effect free; an error means the condition could not be
// evaluated, not that it evaluated to false.
type ConditionEvaluator interface {
	Evaluate(vars map[string]interface{}, expression string) (bool, error)
}

// Handler enriches content change events and decides which trigger
// configurations they fire. It holds no mutable state; every method is safe
// for concurrent use.
type Handler struct {
	evaluator  ConditionEvaluator
	loader     ContentLoader
	repository ContentRepository
}

// NewHandler creates a Handler from its read-only collaborators.
func NewHandler(evaluator ConditionEvaluator, loader ContentLoader, repository ContentRepository) *Handler {
	return &Handler{
		evaluator:  evaluator,
		loader:     loader,
		repository: repository,
	}
}

// Handles reports whether the event belongs to the content change family.
// Events of any other family are rejected before enrichment is attempted.
func (h *Handler) Handles(ev events.AppEvent) bool {
	_, ok := ev.(contents.Event)
	return ok
}

// Enrich produces exactly one enriched event for a content change event.
//
// The snapshot at the event's stream sequence provides the base fields; the
// concrete event overrides everything it carries. A missing snapshot is not
// an error: enrichment degrades to the fields present on the event itself.
// For Updated events the preceding version, when it exists, provides
// DataOld.
func (h *Handler) Enrich(ctx context.Context, env events.Envelope) (*EnrichedContentEvent, error) {
	ev, ok := env.Payload.(contents.Event)
	if !ok {
		return nil, &FatalError{Err: fmt.Errorf("not a content event: %T", env.Payload)}
	}

	base := ev.Base()
	result := &EnrichedContentEvent{}

	snapshot, err := h.loader.Get(ctx, base.AppID, base.ContentID, env.StreamSequence)
	if err != nil && !errors.Is(err, contents.ErrNotFound) {
		return nil, fmt.Errorf("enrich content %s: %w", base.ContentID, err)
	}

	if snapshot != nil {
		result.AppID = snapshot.AppID
		result.SchemaID = snapshot.SchemaID
		result.ContentID = snapshot.ContentID
		result.Data = snapshot.Data
		result.Status = snapshot.Status
		result.Version = snapshot.Version
		result.Actor = snapshot.LastModifiedBy
	}

	// The event is authoritative for the fields it carries.
	result.AppID = base.AppID
	result.SchemaID = base.SchemaID
	result.ContentID = base.ContentID
	result.Actor = base.Actor

	switch e := ev.(type) {
	case *contents.Created:
		result.Type = EnrichedCreated
		if e.Data != nil {
			result.Data = e.Data
		}
		if e.Status != "" {
			result.Status = e.Status
		}
	case *contents.Deleted:
		result.Type = EnrichedDeleted
	case *contents.StatusChanged:
		switch e.Change {
		case contents.StatusChangePublished:
			result.Type = EnrichedPublished
		case contents.StatusChangeUnpublished:
			result.Type = EnrichedUnpublished
		default:
			result.Type = EnrichedStatusChanged
		}
		if e.Status != "" {
			result.Status = e.Status
		}
	case *contents.Updated:
		result.Type = EnrichedUpdated
		if e.Data != nil {
			result.Data = e.Data
		}

		if snapshot != nil {
			previous, err := h.loader.Get(ctx, snapshot.AppID, snapshot.ContentID, snapshot.Version-1)
			if err != nil && !errors.Is(err, contents.ErrNotFound) {
				return nil, fmt.Errorf("enrich content %s: load previous version: %w", base.ContentID, err)
			}
			if previous != nil {
				result.DataOld = previous.Data
			}
		}
	}

	if name, ok := h.NameFor(ev); ok {
		result.Name = name
	}

	return result, nil
}

// SnapshotEvents replays the current content of an app as synthetic Created
// events, one per stored item, filtered to the schemas named by the trigger
// (unfiltered when it handles all events). The sequence stops promptly when
// the context is cancelled; nothing is persisted.
func (h *Handler) SnapshotEvents(ctx context.Context, app string, trigger ContentChangedTrigger) (<-chan *EnrichedContentEvent, error) {
	snapshots, err := h.repository.StreamAll(ctx, app, trigger.SchemaIDs())
	if err != nil {
		return nil, fmt.Errorf("stream contents of app %s: %w", app, err)
	}

	out := make(chan *EnrichedContentEvent)

	go func() {
		defer close(out)

		for snapshot := range snapshots {
			// Cancellation is checked between items, never mid-item.
			select {
			case <-ctx.Done():
				return
			default:
			}

			result := &EnrichedContentEvent{
				Type:      EnrichedCreated,
				Name:      SnapshotEventName(snapshot.SchemaID.Name),
				AppID:     snapshot.AppID,
				SchemaID:  snapshot.SchemaID,
				ContentID: snapshot.ContentID,
				Actor:     snapshot.LastModifiedBy,
				Status:    snapshot.Status,
				Data:      snapshot.Data,
				Version:   snapshot.Version,
			}

			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// NameFor returns the display name of a content change event, of the shape
// "{PascalCaseSchemaName}{Verb}". ok is false for events outside the
// content family; callers treat that as "no routing name", not an error.
func (h *Handler) NameFor(ev events.AppEvent) (string, bool) {
	contentEvent, ok := ev.(contents.Event)
	if !ok {
		return "", false
	}

	verb := eventVerb(contentEvent)
	if verb == "" {
		return "", false
	}

	return ToPascalCase(contentEvent.Base().SchemaID.Name) + verb, true
}

// MatchesEvent gates raw events before enrichment: a trigger that handles
// all events matches anything, otherwise the event's schema must appear in
// the configured schema set. Conditions are not evaluated here.
func (h *Handler) MatchesEvent(ev events.AppEvent, trigger ContentChangedTrigger) bool {
	if trigger.HandleAll {
		return true
	}

	contentEvent, ok := ev.(contents.Event)
	if !ok {
		return false
	}

	schemaID := contentEvent.Base().SchemaID.ID
	for _, schema := range trigger.Schemas {
		if schema.SchemaID == schemaID {
			return true
		}
	}
	return false
}

// MatchesEnriched decides whether an enriched event fires the trigger. The
// first configured schema entry whose id matches and whose condition holds
// wins. A blank condition always holds and never reaches the evaluator.
func (h *Handler) MatchesEnriched(ev *EnrichedContentEvent, trigger ContentChangedTrigger) bool {
	if trigger.HandleAll {
		return true
	}

	for _, schema := range trigger.Schemas {
		if schema.SchemaID == ev.SchemaID.ID && h.matchesCondition(schema, ev) {
			return true
		}
	}
	return false
}

func (h *Handler) matchesCondition(schema SchemaTrigger, ev *EnrichedContentEvent) bool {
	if strings.TrimSpace(schema.Condition) == "" {
		return true
	}

	ok, err := h.evaluator.Evaluate(ev.Vars(), schema.Condition)
	if err != nil {
		slog.Error("Condition evaluation failed",
			"schema_id", schema.SchemaID,
			"content_id", ev.ContentID,
			"error", err,
		)
		return false
	}
	return ok
}
