package spies

import (
	"context"
	"sync"

	"github.com/openshelf/circulation-go/journal"
)

// SpySpan is the SpanContext implementation handed out by TracingCollectorSpy.
// It records status updates and attributes set during the span's lifetime.
type SpySpan struct {
	Name       string
	Status     string
	Attributes map[string]string
	Finished   bool
	mu         sync.Mutex
}

// SetStatus implements the SpanContext interface for testing.
func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

// AddAttribute implements the SpanContext interface for testing.
func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attributes[key] = value
}

// TracingCollectorSpy is a TracingCollector implementation that captures span
// lifecycle calls for testing.
type TracingCollectorSpy struct {
	startedSpans  []*SpySpan
	finishedSpans []*SpySpan
	mu            sync.Mutex
	recordCalls   bool
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy instance.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{
		recordCalls: recordCalls,
	}
}

// StartSpan implements the TracingCollector interface for testing.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, journal.SpanContext) {
	span := &SpySpan{
		Name:       name,
		Attributes: copyLabels(attrs),
	}
	if span.Attributes == nil {
		span.Attributes = make(map[string]string)
	}

	if s.recordCalls {
		s.mu.Lock()
		s.startedSpans = append(s.startedSpans, span)
		s.mu.Unlock()
	}

	return ctx, span
}

// FinishSpan implements the TracingCollector interface for testing.
func (s *TracingCollectorSpy) FinishSpan(spanCtx journal.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	span.mu.Lock()
	span.Status = status
	for key, value := range attrs {
		span.Attributes[key] = value
	}
	span.Finished = true
	span.mu.Unlock()

	if s.recordCalls {
		s.mu.Lock()
		s.finishedSpans = append(s.finishedSpans, span)
		s.mu.Unlock()
	}
}

// Reset clears all recorded spans.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedSpans = s.startedSpans[:0]
	s.finishedSpans = s.finishedSpans[:0]
}

// GetStartedSpans returns a copy of all started spans.
func (s *TracingCollectorSpy) GetStartedSpans() []*SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*SpySpan(nil), s.startedSpans...)
}

// GetFinishedSpans returns a copy of all finished spans.
func (s *TracingCollectorSpy) GetFinishedSpans() []*SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*SpySpan(nil), s.finishedSpans...)
}

// HasFinishedSpan checks if a finished span with the specified name and status exists.
func (s *TracingCollectorSpy) HasFinishedSpan(name string, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.finishedSpans {
		if span.Name == name && span.Status == status {
			return true
		}
	}

	return false
}

// Compile-time check to ensure TracingCollectorSpy implements the TracingCollector interface.
var _ journal.TracingCollector = (*TracingCollectorSpy)(nil)
