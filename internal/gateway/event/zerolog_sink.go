package event

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologSink writes audit events as structured log lines. Field names match
// the log-collector contract consumed downstream (event_type, event_name,
// correlation_id, duration_ms, result).
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

func (s *ZerologSink) RecordEvent(_ context.Context, e Event) {
	evt := s.logger.Info().
		Str("event_type", string(e.Phase)).
		Str("event_name", string(e.Name)).
		Str("correlation_id", e.CorrelationID)

	if e.Phase != PhaseStart {
		evt = evt.Str("result", string(e.Result)).Int64("duration_ms", e.DurationMs)
	}
	for k, v := range e.Attributes {
		evt = evt.Str(k, v)
	}
	evt.Msg("audit event")
}
