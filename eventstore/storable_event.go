package eventstore

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var (
	ErrInvalidPayloadJSON  = errors.New("payload json is not valid")
	ErrInvalidMetadataJSON = errors.New("metadata json is not valid")
)

var emptyMetadataJSON = []byte("{}")

// StorableEvents is an alias type for a slice of StorableEvent
type StorableEvents = []StorableEvent

// StorableEvent is what the engines append and return: an event type, the time it occurred,
// and the JSON encoded payload and metadata. It knows nothing about circulation events.
//
// Build it with BuildStorableEvent or BuildStorableEventWithEmptyMetadata, which reject invalid JSON.
type StorableEvent struct {
	EventType    string
	OccurredAt   time.Time
	PayloadJSON  []byte
	MetadataJSON []byte
}

// BuildStorableEvent returns a StorableEvent after checking that payloadJSON and metadataJSON are valid JSON.
func BuildStorableEvent(eventType string, occurredAt time.Time, payloadJSON []byte, metadataJSON []byte) (StorableEvent, error) {
	checks := []struct {
		raw []byte
		err error
	}{
		{raw: payloadJSON, err: ErrInvalidPayloadJSON},
		{raw: metadataJSON, err: ErrInvalidMetadataJSON},
	}

	for _, check := range checks {
		if !jsoniter.ConfigFastest.Valid(check.raw) {
			return StorableEvent{}, fmt.Errorf("%w: event type %q", check.err, eventType)
		}
	}

	return StorableEvent{
		EventType:    eventType,
		OccurredAt:   occurredAt,
		PayloadJSON:  payloadJSON,
		MetadataJSON: metadataJSON,
	}, nil
}

// BuildStorableEventWithEmptyMetadata is BuildStorableEvent with "{}" as metadata.
func BuildStorableEventWithEmptyMetadata(eventType string, occurredAt time.Time, payloadJSON []byte) (StorableEvent, error) {
	return BuildStorableEvent(eventType, occurredAt, payloadJSON, emptyMetadataJSON)
}
