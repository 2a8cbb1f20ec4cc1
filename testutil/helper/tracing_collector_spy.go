package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/school-library/librarian/eventstore"
)

// SpySpan is the SpanContext handed out by TracingCollectorSpy.
type SpySpan struct {
	mu         sync.Mutex
	status     string
	attributes map[string]string
}

func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attributes[key] = value
}

// SpySpanRecord is one started span. Status and EndAttributes stay empty until it is finished.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool

	span *SpySpan
}

// TracingCollectorSpy is a TracingCollector that records every span for inspection in tests.
type TracingCollectorSpy struct {
	mu      sync.Mutex
	records []SpySpanRecord
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpySpan{attributes: make(map[string]string)}
	s.records = append(s.records, SpySpanRecord{Name: name, StartAttributes: maps.Clone(attrs), span: span})

	return ctx, span
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].span == span {
			s.records[i].Status = status
			s.records[i].EndAttributes = maps.Clone(attrs)
			s.records[i].Finished = true

			return
		}
	}
}

// GetSpanRecords returns a copy of the recorded spans in start order.
func (s *TracingCollectorSpy) GetSpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpySpanRecord, len(s.records))
	copy(records, s.records)

	return records
}

// FindSpan returns the first recorded span with the given name.
func (s *TracingCollectorSpy) FindSpan(name string) (SpySpanRecord, bool) {
	for _, record := range s.GetSpanRecords() {
		if record.Name == name {
			return record, true
		}
	}

	return SpySpanRecord{}, false
}

var _ eventstore.TracingCollector = (*TracingCollectorSpy)(nil)
