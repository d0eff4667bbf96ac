package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) RecordEvent(_ context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestBeginFinish(t *testing.T) {
	sink := &captureSink{}
	clock := time2.NewMockClock(time.Now())
	r := NewRecorder(sink, clock)
	ctx := context.Background()

	scope := r.Begin(ctx, CreateContainer, "session-1", map[string]string{"container_name": "doc.asice"})
	clock.Advance(250 * time.Millisecond)
	scope.Finish(ctx, nil)

	events := sink.all()
	require.Len(t, events, 2)

	assert.Equal(t, CreateContainer, events[0].Name)
	assert.Equal(t, PhaseStart, events[0].Phase)
	assert.Equal(t, "session-1", events[0].CorrelationID)
	assert.Equal(t, "doc.asice", events[0].Attributes["container_name"])

	assert.Equal(t, PhaseFinish, events[1].Phase)
	assert.Equal(t, ResultSuccess, events[1].Result)
	assert.Equal(t, int64(250), events[1].DurationMs)
}

func TestBeginException(t *testing.T) {
	sink := &captureSink{}
	clock := time2.NewMockClock(time.Now())
	r := NewRecorder(sink, clock)
	ctx := context.Background()

	scope := r.Begin(ctx, TSARequest, "session-1", nil)
	scope.Exception(ctx, errors.New("tsa unreachable"))

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, PhaseException, events[1].Phase)
	assert.Equal(t, ResultException, events[1].Result)
	assert.Equal(t, "tsa unreachable", events[1].Attributes["error_message"])
	assert.Equal(t, errdefs.CodeInternal, events[1].Attributes["error_code"])
}

func TestObserve(t *testing.T) {
	sink := &captureSink{}
	clock := time2.NewMockClock(time.Now())
	r := NewRecorder(sink, clock)
	ctx := context.Background()

	err := r.Observe(ctx, AugmentSignatures, "session-1", nil, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	err = r.Observe(ctx, AugmentSignatures, "session-1", nil, func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)

	events := sink.all()
	require.Len(t, events, 4)
	assert.Equal(t, PhaseFinish, events[1].Phase)
	assert.Equal(t, PhaseException, events[3].Phase)
}
