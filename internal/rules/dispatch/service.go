// Package dispatch connects the rule trigger subsystem to the event
// transport: it consumes content change events, runs them through the
// trigger handler for every loaded rule and publishes the matching
// enriched events to per-rule subjects.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/quillcms/quill/internal/contents"
	"github.com/quillcms/quill/internal/events"
	"github.com/quillcms/quill/internal/pubsub"
	"github.com/quillcms/quill/internal/rules"
)

// DefaultNumWorkers is used when the service is configured with a
// non-positive worker count.
const DefaultNumWorkers = 16

const workerChanBufSize = 100

// Delivery is the published unit: one enriched event bound to one rule.
// The id is unique per delivery so downstream consumers can deduplicate
// across redeliveries.
type Delivery struct {
	ID     string                      `json:"deliveryId"`
	RuleID string                      `json:"ruleId"`
	Event  *rules.EnrichedContentEvent `json:"event"`
}

// TriggerHandler is the slice of the rule handler the dispatcher needs.
type TriggerHandler interface {
	Handles(ev events.AppEvent) bool
	Enrich(ctx context.Context, env events.Envelope) (*rules.EnrichedContentEvent, error)
	MatchesEvent(ev events.AppEvent, trigger rules.ContentChangedTrigger) bool
	MatchesEnriched(ev *rules.EnrichedContentEvent, trigger rules.ContentChangedTrigger) bool
	SnapshotEvents(ctx context.Context, app string, trigger rules.ContentChangedTrigger) (<-chan *rules.EnrichedContentEvent, error)
}

// Service consumes content change events and dispatches matching enriched
// events. Events for the same content item are processed serially by
// partitioning on the content key; distinct items proceed in parallel.
type Service struct {
	handler    TriggerHandler
	consumer   pubsub.Consumer
	publisher  pubsub.Publisher
	numWorkers int

	mu    sync.RWMutex
	rules []*rules.Rule

	workerChans []chan pubsub.Message
	wg          sync.WaitGroup
}

// NewService creates a dispatch service. The rule set starts empty; call
// LoadRules before or after Start.
func NewService(handler TriggerHandler, consumer pubsub.Consumer, publisher pubsub.Publisher, numWorkers int) *Service {
	if numWorkers <= 0 {
		numWorkers = DefaultNumWorkers
	}
	return &Service{
		handler:    handler,
		consumer:   consumer,
		publisher:  publisher,
		numWorkers: numWorkers,
	}
}

// LoadRules replaces the active rule set. Rules that fail validation are
// rejected as a batch; the previous set stays active.
func (s *Service) LoadRules(rs []*rules.Rule, compiler rules.ConditionCompiler) error {
	for _, r := range rs {
		if err := rules.ValidateRule(r, compiler); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}

	s.mu.Lock()
	s.rules = rs
	s.mu.Unlock()

	slog.Info("Rules loaded", "count", len(rs))
	return nil
}

// Rules returns the active rule set.
func (s *Service) Rules() []*rules.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// Start consumes events until the context is cancelled. It blocks; run it
// in its own goroutine. Workers drain their channels before Start returns.
func (s *Service) Start(ctx context.Context) error {
	msgCh, err := s.consumer.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to content events: %w", err)
	}

	s.workerChans = make([]chan pubsub.Message, s.numWorkers)
	for i := 0; i < s.numWorkers; i++ {
		s.workerChans[i] = make(chan pubsub.Message, workerChanBufSize)
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}

	slog.Info("Dispatch service started", "workers", s.numWorkers)

	for msg := range msgCh {
		s.route(msg)
	}

	for _, ch := range s.workerChans {
		close(ch)
	}
	s.wg.Wait()

	slog.Info("Dispatch service stopped")
	return nil
}

// route peeks at the payload for the partition key. Events for the same
// content item always land on the same worker.
func (s *Service) route(msg pubsub.Message) {
	env, err := contents.DecodeEnvelope(msg.Data())
	if err != nil {
		slog.Error("Invalid event payload", "subject", msg.Subject(), "error", err)
		msg.Term()
		return
	}

	base := env.Payload.(contents.Event).Base()

	h := fnv.New32a()
	h.Write([]byte(base.AppID))
	h.Write([]byte(base.ContentID))
	idx := int(h.Sum32() % uint32(s.numWorkers))

	s.workerChans[idx] <- msg
}

func (s *Service) workerLoop(ctx context.Context, id int) {
	defer s.wg.Done()

	for msg := range s.workerChans[id] {
		err := s.process(ctx, msg)
		switch {
		case err == nil:
			msg.Ack()
		case rules.IsFatal(err):
			slog.Error("Dropping event", "worker", id, "subject", msg.Subject(), "error", err)
			msg.Term()
		default:
			slog.Error("Failed to process event", "worker", id, "subject", msg.Subject(), "error", err)
			msg.Nak()
		}
	}
}

// process runs one event through every active rule. Enrichment happens at
// most once per event and the result is shared across rules.
func (s *Service) process(ctx context.Context, msg pubsub.Message) error {
	env, err := contents.DecodeEnvelope(msg.Data())
	if err != nil {
		return &rules.FatalError{Err: err}
	}

	if !s.handler.Handles(env.Payload) {
		return nil
	}

	base := env.Payload.(contents.Event).Base()

	var enriched *rules.EnrichedContentEvent
	for _, rule := range s.Rules() {
		if rule.AppID != base.AppID {
			continue
		}
		if !s.handler.MatchesEvent(env.Payload, rule.Trigger) {
			continue
		}

		if enriched == nil {
			enriched, err = s.handler.Enrich(ctx, env)
			if err != nil {
				return err
			}
		}

		if !s.handler.MatchesEnriched(enriched, rule.Trigger) {
			continue
		}

		if err := s.publish(ctx, rule.ID, enriched); err != nil {
			return err
		}
	}

	return nil
}

// Backfill replays the current content of the rule's app as enriched
// events and publishes those that match. Returns the number of events
// published.
func (s *Service) Backfill(ctx context.Context, rule *rules.Rule) (int, error) {
	// Cancel the snapshot stream on early return so its producers unwind
	// instead of blocking on their sends.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventCh, err := s.handler.SnapshotEvents(ctx, rule.AppID, rule.Trigger)
	if err != nil {
		return 0, fmt.Errorf("backfill rule %s: %w", rule.ID, err)
	}

	published := 0
	for enriched := range eventCh {
		if !s.handler.MatchesEnriched(enriched, rule.Trigger) {
			continue
		}
		if err := s.publish(ctx, rule.ID, enriched); err != nil {
			return published, fmt.Errorf("backfill rule %s: %w", rule.ID, err)
		}
		published++
	}

	if err := ctx.Err(); err != nil {
		return published, err
	}
	return published, nil
}

func (s *Service) publish(ctx context.Context, ruleID string, ev *rules.EnrichedContentEvent) error {
	delivery := Delivery{
		ID:     uuid.NewString(),
		RuleID: ruleID,
		Event:  ev,
	}

	data, err := json.Marshal(delivery)
	if err != nil {
		return &rules.FatalError{Err: fmt.Errorf("marshal enriched event: %w", err)}
	}

	// The rule id is the whole relative subject. The publisher's subject
	// prefix supplies the namespace, so published subjects always fall
	// inside the stream binding it was created with.
	if err := s.publisher.Publish(ctx, ruleID, data); err != nil {
		return fmt.Errorf("publish delivery for rule %s: %w", ruleID, err)
	}

	slog.Debug("Published enriched event",
		"rule_id", ruleID,
		"name", ev.Name,
		"content_id", ev.ContentID,
	)
	return nil
}
