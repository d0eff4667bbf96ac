package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSnapshotter struct {
	mock.Mock
}

func (m *MockSnapshotter) SaveSnapshot(ctx context.Context, sess *Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *MockSnapshotter) DeleteSnapshot(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func testTenant() admission.Tenant {
	return admission.Tenant{ClientName: "client", ServiceName: "service", ServiceUUID: "svc-1"}
}

func newTestStore(expiry time.Duration) (*Store, *time2.MockClock, *admission.Controller) {
	clock := time2.NewMockClock(time.Now())
	controller := admission.NewController(admission.Limits{MaxSessionsPerService: 5, MaxServiceBytes: 1000})
	return NewStore(controller, nil, clock, expiry), clock, controller
}

func TestCreateAndGet(t *testing.T) {
	store, _, controller := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("container"), "test.asice")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("container"), got.Container)
	assert.Equal(t, "test.asice", got.ContainerName)

	sessions, bytes := controller.Usage(testTenant())
	assert.Equal(t, 1, sessions)
	assert.Equal(t, int64(len("container")), bytes)

	_, err = store.Get(ctx, "no-such-id")
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
	assert.Contains(t, err.Error(), "Session [no-such-id] not found")
}

func TestGetReturnsPrivateCopy(t *testing.T) {
	store, _, _ := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("abc"), "")
	require.NoError(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	got.Container[0] = 'X'
	got.SignatureIDs["rogue"] = 7

	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again.Container)
	assert.Empty(t, again.SignatureIDs)
}

func TestUpdateCommitsAtomically(t *testing.T) {
	store, _, controller := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("aa"), "")
	require.NoError(t, err)

	updated, err := store.Update(ctx, sess.ID, func(s *Session) error {
		s.Container = []byte("aaaa")
		s.SignatureIDs["sig-1"] = 0
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), updated.Container)

	_, bytes := controller.Usage(testTenant())
	assert.Equal(t, int64(4), bytes)

	// A failing mutation leaves nothing behind.
	_, err = store.Update(ctx, sess.ID, func(s *Session) error {
		s.Container = []byte("should not commit")
		return assert.AnError
	})
	require.Error(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), got.Container)
	assert.Equal(t, map[string]int{"sig-1": 0}, got.SignatureIDs)
}

func TestUpdateDeniedResizeLeavesState(t *testing.T) {
	store, _, _ := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("aa"), "")
	require.NoError(t, err)

	_, err = store.Update(ctx, sess.ID, func(s *Session) error {
		s.Container = make([]byte, 2000)
		return nil
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindAdmissionDenied))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("aa"), got.Container)
}

func TestConcurrentUpdatesAreLinearized(t *testing.T) {
	store, _, _ := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte{0}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, sess.ID, func(s *Session) error {
				s.Container = append(s.Container, 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Container, 21)
}

func TestCloseReleasesCapacity(t *testing.T) {
	store, _, controller := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("container"), "")
	require.NoError(t, err)

	store.Close(ctx, sess.ID)
	store.Close(ctx, sess.ID)

	_, err = store.Get(ctx, sess.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))

	sessions, bytes := controller.Usage(testTenant())
	assert.Equal(t, 0, sessions)
	assert.Equal(t, int64(0), bytes)
	assert.Equal(t, 0, store.Len())
}

func TestExpiry(t *testing.T) {
	store, clock, controller := newTestStore(time.Minute)
	ctx := context.Background()

	sess, err := store.Create(ctx, testTenant(), []byte("container"), "")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)

	// Get refreshed the idle timer; only after a full idle window does the
	// session expire.
	clock.Advance(61 * time.Second)
	_, err = store.Get(ctx, sess.ID)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))

	removed := store.SweepExpired(ctx)
	assert.Equal(t, 1, removed)

	sessions, _ := controller.Usage(testTenant())
	assert.Equal(t, 0, sessions)
}

func TestOnRemoveFiresOnCloseAndSweep(t *testing.T) {
	store, clock, _ := newTestStore(time.Minute)
	ctx := context.Background()

	var mu sync.Mutex
	removed := make([]string, 0)
	store.OnRemove(func(sessionID string) {
		mu.Lock()
		defer mu.Unlock()
		removed = append(removed, sessionID)
	})

	closed, err := store.Create(ctx, testTenant(), []byte("a"), "")
	require.NoError(t, err)
	expired, err := store.Create(ctx, testTenant(), []byte("b"), "")
	require.NoError(t, err)

	store.Close(ctx, closed.ID)
	// Double close fires the hook only once.
	store.Close(ctx, closed.ID)
	assert.Equal(t, []string{closed.ID}, removed)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, store.SweepExpired(ctx))
	assert.Equal(t, []string{closed.ID, expired.ID}, removed)
}

func TestSnapshotterIsAdvisory(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	controller := admission.NewController(admission.Limits{})
	snapshots := new(MockSnapshotter)
	snapshots.On("SaveSnapshot", mock.Anything, mock.Anything).Return(assert.AnError)
	snapshots.On("DeleteSnapshot", mock.Anything, mock.Anything).Return(assert.AnError)

	store := NewStore(controller, snapshots, clock, time.Minute)
	ctx := context.Background()

	// Snapshot failures never fail the operation.
	sess, err := store.Create(ctx, testTenant(), []byte("container"), "")
	require.NoError(t, err)

	_, err = store.Update(ctx, sess.ID, func(s *Session) error { return nil })
	require.NoError(t, err)

	store.Close(ctx, sess.ID)
	snapshots.AssertCalled(t, "DeleteSnapshot", mock.Anything, sess.ID)
}
