// Package event brackets gateway operations with START/FINISH/EXCEPTION
// audit events. The emission format is owned by the sink; the recorder only
// carries names, correlation ids and timing.
package event

import (
	"context"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
)

// Sink receives audit events. Implementations must be safe for concurrent use.
type Sink interface {
	RecordEvent(ctx context.Context, e Event)
}

// Recorder wraps operations with audit events.
type Recorder struct {
	sink  Sink
	clock time2.Clock
}

func NewRecorder(sink Sink, clock time2.Clock) *Recorder {
	return &Recorder{sink: sink, clock: clock}
}

// Begin emits the START event and returns a scope that must be closed with
// Finish or Exception exactly once.
func (r *Recorder) Begin(ctx context.Context, name Name, correlationID string, attrs map[string]string) *Scope {
	r.sink.RecordEvent(ctx, Event{
		Name:          name,
		Phase:         PhaseStart,
		CorrelationID: correlationID,
		Attributes:    attrs,
	})
	return &Scope{
		recorder:      r,
		name:          name,
		correlationID: correlationID,
		startedAt:     r.clock.Now(),
	}
}

// Observe runs fn bracketed by START and FINISH/EXCEPTION events.
func (r *Recorder) Observe(ctx context.Context, name Name, correlationID string, attrs map[string]string, fn func(ctx context.Context) error) error {
	scope := r.Begin(ctx, name, correlationID, attrs)
	if err := fn(ctx); err != nil {
		scope.Exception(ctx, err)
		return err
	}
	scope.Finish(ctx, nil)
	return nil
}

// Scope is one in-flight audited operation.
type Scope struct {
	recorder      *Recorder
	name          Name
	correlationID string
	startedAt     time.Time
}

// Finish emits the FINISH event with a SUCCESS result.
func (s *Scope) Finish(ctx context.Context, attrs map[string]string) {
	s.recorder.sink.RecordEvent(ctx, Event{
		Name:          s.name,
		Phase:         PhaseFinish,
		CorrelationID: s.correlationID,
		Result:        ResultSuccess,
		DurationMs:    s.recorder.clock.Since(s.startedAt).Milliseconds(),
		Attributes:    attrs,
	})
}

// Exception emits the EXCEPTION event carrying the failure message and the
// stable error code.
func (s *Scope) Exception(ctx context.Context, err error) {
	attrs := map[string]string{}
	if err != nil {
		attrs["error_message"] = err.Error()
		attrs["error_code"] = errdefs.CodeOf(err)
	}
	s.recorder.sink.RecordEvent(ctx, Event{
		Name:          s.name,
		Phase:         PhaseException,
		CorrelationID: s.correlationID,
		Result:        ResultException,
		DurationMs:    s.recorder.clock.Since(s.startedAt).Milliseconds(),
		Attributes:    attrs,
	})
}
