// Package session holds container working state between stateless HTTP
// requests. The store is an arena keyed by session id: every mutation runs
// under that session's exclusive lock, so operations on one session are
// linearized while different sessions proceed independently.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/rs/zerolog/log"
)

// Snapshotter mirrors committed session state to an external cache. It is
// advisory: snapshot failures must not fail the owning operation.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, sess *Session) error
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

type entry struct {
	mu     sync.Mutex
	sess   *Session
	ticket *admission.Ticket
	closed bool
}

// Store is the in-process session arena.
type Store struct {
	admission *admission.Controller
	snapshots Snapshotter
	clock     time2.Clock
	expiry    time.Duration

	mu       sync.RWMutex
	sessions map[string]*entry
	onRemove []func(sessionID string)
}

// NewStore creates a session store. snapshots may be nil when no external
// mirror is configured.
func NewStore(controller *admission.Controller, snapshots Snapshotter, clock time2.Clock, expiry time.Duration) *Store {
	return &Store{
		admission: controller,
		snapshots: snapshots,
		clock:     clock,
		expiry:    expiry,
		sessions:  make(map[string]*entry),
	}
}

// Create registers a new session holding the given container bytes. The
// admission ticket is sized to the container; reservation failure aborts
// creation with no state change.
func (s *Store) Create(ctx context.Context, tenant admission.Tenant, containerBytes []byte, containerName string) (*Session, error) {
	ticket, err := s.admission.Reserve(tenant, int64(len(containerBytes)))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess := &Session{
		ID:              uuid.New().String(),
		Tenant:          tenant,
		ContainerName:   containerName,
		Container:       append([]byte(nil), containerBytes...),
		SignatureIDs:    make(map[string]int),
		DataFileDigests: make(map[string]string),
		CreatedAt:       now,
		LastAccessedAt:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess, ticket: ticket}
	s.mu.Unlock()

	s.saveSnapshot(ctx, sess)
	return sess.Clone(), nil
}

// Get returns a copy of the session or NotFound when it is absent or expired.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || s.expired(e.sess) {
		return nil, notFound(sessionID)
	}
	e.sess.LastAccessedAt = s.clock.Now()
	return e.sess.Clone(), nil
}

// Update applies fn to the session under its exclusive lock. fn receives a
// private copy; only when fn succeeds and the admission resize is granted is
// the copy committed, so failures leave no partial state behind.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(sess *Session) error) (*Session, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || s.expired(e.sess) {
		return nil, notFound(sessionID)
	}

	next := e.sess.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.admission.Resize(e.ticket, int64(len(next.Container))); err != nil {
		return nil, err
	}

	next.LastAccessedAt = s.clock.Now()
	e.sess = next
	s.saveSnapshot(ctx, next)
	return next.Clone(), nil
}

// OnRemove registers fn to run whenever a session is removed, whether by an
// explicit Close or by the expiry sweeper. fn runs outside every store lock.
func (s *Store) OnRemove(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemove = append(s.onRemove, fn)
}

// Close releases the session's admission ticket and removes it. Closing an
// unknown or already-closed session is a no-op.
func (s *Store) Close(ctx context.Context, sessionID string) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	callbacks := append(([]func(string))(nil), s.onRemove...)
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	alreadyClosed := e.closed
	e.closed = true
	e.mu.Unlock()
	if alreadyClosed {
		return
	}

	s.admission.Release(e.ticket)
	if s.snapshots != nil {
		if err := s.snapshots.DeleteSnapshot(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to delete session snapshot")
		}
	}
	for _, fn := range callbacks {
		fn(sessionID)
	}
}

// SweepExpired removes every session idle longer than the configured expiry
// and returns the number removed.
func (s *Store) SweepExpired(ctx context.Context) int {
	s.mu.RLock()
	candidates := make([]string, 0)
	for id, e := range s.sessions {
		e.mu.Lock()
		if !e.closed && s.expired(e.sess) {
			candidates = append(candidates, id)
		}
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range candidates {
		s.Close(ctx, id)
	}
	if len(candidates) > 0 {
		log.Info().Int("count", len(candidates)).Msg("Removed expired sessions")
	}
	return len(candidates)
}

// StartSweeper runs the expiry sweep until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepExpired(ctx)
			}
		}
	}()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(sessionID)
	}
	return e, nil
}

func (s *Store) expired(sess *Session) bool {
	if s.expiry <= 0 {
		return false
	}
	return s.clock.Since(sess.LastAccessedAt) > s.expiry
}

func (s *Store) saveSnapshot(ctx context.Context, sess *Session) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveSnapshot(ctx, sess); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to save session snapshot")
	}
}

func notFound(sessionID string) error {
	return errdefs.NewNotFound(fmt.Sprintf("Session [%s] not found", sessionID))
}
