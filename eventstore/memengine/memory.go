package memengine

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/school-library/librarian/eventstore"
)

const (
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
	spanOperationQuery        = "query"
	spanOperationAppend       = "append"
)

// ErrPayloadIsNotAnObject is returned when an appended payload is valid JSON but not an object.
var ErrPayloadIsNotAnObject = errors.New("payload json must be an object")

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
	payload        map[string]any
}

// EventStore keeps the event log in memory. It is safe for concurrent use.
type EventStore struct {
	mu      sync.RWMutex
	events  []storedEvent
	logger  eventstore.Logger
	tracing eventstore.TracingCollector
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// WithTracing runs Query and Append in spans named like the Postgres engine's.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) {
		es.tracing = collector
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{events: make([]storedEvent, 0)}

	for _, option := range options {
		option(es)
	}

	return es
}

// Query returns the events selected by the filter in sequence order and the max sequence number among them.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	_, span := eventstore.StartSpan(ctx, es.tracing, eventstore.SpanNameQuery, map[string]string{
		eventstore.SpanAttrOperation: spanOperationQuery,
	})

	if err := ctx.Err(); err != nil {
		eventstore.FinishSpan(es.tracing, span, eventstore.SpanStatusError, nil)

		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if !matches(filter, stored) {
			continue
		}

		eventStream = append(eventStream, copyEvent(stored.event))
		maxSequenceNumber = stored.sequenceNumber
	}

	if es.logger != nil {
		es.logger.Debug(logMsgQueryCompleted, logAttrEventCount, len(eventStream))
	}

	eventstore.FinishSpan(es.tracing, span, eventstore.SpanStatusSuccess, map[string]string{
		eventstore.SpanAttrEventCount:  strconv.Itoa(len(eventStream)),
		eventstore.SpanAttrMaxSequence: strconv.FormatUint(uint64(maxSequenceNumber), 10),
	})

	return eventStream, maxSequenceNumber, nil
}

// Append appends the events if the max sequence number of the stream selected by the filter
// still equals expectedMaxSequenceNumber, otherwise it returns eventstore.ErrConcurrencyConflict.
// Either all events are appended or none.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	_, span := eventstore.StartSpan(ctx, es.tracing, eventstore.SpanNameAppend, map[string]string{
		eventstore.SpanAttrOperation:   spanOperationAppend,
		eventstore.SpanAttrEventType:   event.EventType,
		eventstore.SpanAttrEventCount:  strconv.Itoa(len(allEvents)),
		eventstore.SpanAttrExpectedSeq: strconv.FormatUint(uint64(expectedMaxSequenceNumber), 10),
	})

	err := es.append(ctx, filter, expectedMaxSequenceNumber, allEvents)

	switch {
	case err == nil:
		eventstore.FinishSpan(es.tracing, span, eventstore.SpanStatusSuccess, nil)
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		eventstore.FinishSpan(es.tracing, span, eventstore.SpanStatusConflict, nil)
	default:
		eventstore.FinishSpan(es.tracing, span, eventstore.SpanStatusError, nil)
	}

	return err
}

func (es *EventStore) append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	allEvents eventstore.StorableEvents,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	toStore := make([]storedEvent, 0, len(allEvents))

	for _, e := range allEvents {
		payload := make(map[string]any)
		if err := jsoniter.ConfigFastest.Unmarshal(e.PayloadJSON, &payload); err != nil {
			return errors.Join(eventstore.ErrAppendingEventFailed, ErrPayloadIsNotAnObject, err)
		}

		toStore = append(toStore, storedEvent{event: copyEvent(e), payload: payload})
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	currentMax := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range es.events {
		if matches(filter, stored) {
			currentMax = stored.sequenceNumber
		}
	}

	if currentMax != expectedMaxSequenceNumber {
		if es.logger != nil {
			es.logger.Info(
				logMsgConcurrencyConflict,
				logAttrExpectedSequence, expectedMaxSequenceNumber,
				logAttrActualSequence, currentMax,
			)
		}

		return eventstore.ErrConcurrencyConflict
	}

	next := eventstore.MaxSequenceNumberUint(len(es.events))
	for i := range toStore {
		next++
		toStore[i].sequenceNumber = next
	}

	es.events = append(es.events, toStore...)

	if es.logger != nil {
		es.logger.Info(logMsgEventsAppended, logAttrEventCount, len(toStore))
	}

	return nil
}

// Len returns the number of events in the log.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func matches(filter eventstore.Filter, stored storedEvent) bool {
	if filter.MatchesAll() {
		return true
	}

	for _, item := range filter.Items() {
		if matchesItem(item, stored) {
			return true
		}
	}

	return false
}

func matchesItem(item eventstore.FilterItem, stored storedEvent) bool {
	if !item.HasEventType(stored.event.EventType) {
		return false
	}

	if len(item.Predicates()) == 0 {
		return true
	}

	for _, predicate := range item.Predicates() {
		matched := payloadContains(stored.payload, predicate)

		if item.AllPredicatesMustMatch() && !matched {
			return false
		}

		if !item.AllPredicatesMustMatch() && matched {
			return true
		}
	}

	return item.AllPredicatesMustMatch()
}

// payloadContains mirrors the jsonb containment check {"key": "val"} of the Postgres engine:
// only string values match.
func payloadContains(payload map[string]any, predicate eventstore.FilterPredicate) bool {
	value, ok := payload[predicate.Key()].(string)

	return ok && value == predicate.Val()
}

func copyEvent(e eventstore.StorableEvent) eventstore.StorableEvent {
	return eventstore.StorableEvent{
		EventType:    e.EventType,
		OccurredAt:   e.OccurredAt,
		PayloadJSON:  slices.Clone(e.PayloadJSON),
		MetadataJSON: slices.Clone(e.MetadataJSON),
	}
}
