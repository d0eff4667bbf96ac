package containers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) RecordEvent(context.Context, event.Event) {}

type fixture struct {
	service  *Service
	sessions *session.Store
	codec    digidoc.Service
	tenant   admission.Tenant
}

func newFixture(t *testing.T, limits admission.Limits) *fixture {
	clock := time2.NewMockClock(time.Now())
	controller := admission.NewController(limits)
	sessions := session.NewStore(controller, nil, clock, time.Hour)
	codec := digidoc.NewMemService()
	events := event.NewRecorder(nopSink{}, clock)

	return &fixture{
		service:  NewService(sessions, codec, events),
		sessions: sessions,
		codec:    codec,
		tenant:   admission.Tenant{ClientName: "c", ServiceName: "s", ServiceUUID: "svc"},
	}
}

func testFiles() []digidoc.DataFile {
	return []digidoc.DataFile{
		{Name: "doc.txt", Content: []byte("hello"), MimeType: "text/plain"},
	}
}

func (f *fixture) sign(t *testing.T, sessionID string) {
	ctx := context.Background()
	_, err := f.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		digest, err := f.codec.DataToSign(ctx, sess.Container, []byte("cert"), digidoc.ProfileLT)
		if err != nil {
			return err
		}
		next, _, err := f.codec.FinalizeSignature(ctx, sess.Container, digest, []byte("value"), []byte("cert"), digidoc.ProfileLT)
		if err != nil {
			return err
		}
		sess.Container = next
		sess.SignatureIDs["generated-1"] = 0
		return nil
	})
	require.NoError(t, err)
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)

	name, raw, err := f.service.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "doc.asice", name)

	info, err := f.codec.Open(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, info.DataFiles, 1)
}

func TestCreateRequiresDataFiles(t *testing.T) {
	f := newFixture(t, admission.Limits{})

	_, err := f.service.Create(context.Background(), f.tenant, "doc.asice", nil)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindInvalidSessionData))
}

func TestCreateDeniedLeavesNoSession(t *testing.T) {
	f := newFixture(t, admission.Limits{MaxSessionsPerService: 1})
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.tenant, "one.asice", testFiles())
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.tenant, "two.asice", testFiles())
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindAdmissionDenied))
	assert.Equal(t, 1, f.sessions.Len())
}

func TestUploadValidatesContainer(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	_, err := f.service.Upload(ctx, f.tenant, "bad.asice", []byte("garbage"))
	require.Error(t, err)
	assert.Equal(t, 0, f.sessions.Len())

	raw, err := f.codec.Build(ctx, testFiles())
	require.NoError(t, err)
	sessionID, err := f.service.Upload(ctx, f.tenant, "good.asice", raw)
	require.NoError(t, err)

	files, err := f.service.DataFiles(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestAddAndRemoveDataFiles(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)

	err = f.service.AddDataFiles(ctx, sessionID, []digidoc.DataFile{{Name: "more.txt", Content: []byte("x")}})
	require.NoError(t, err)

	// Duplicate names are rejected and nothing is committed.
	err = f.service.AddDataFiles(ctx, sessionID, []digidoc.DataFile{
		{Name: "third.txt", Content: []byte("y")},
		{Name: "doc.txt", Content: []byte("dup")},
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindDuplicateDataFile))

	files, err := f.service.DataFiles(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	require.NoError(t, f.service.RemoveDataFile(ctx, sessionID, "more.txt"))
	files, err = f.service.DataFiles(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDataFileMutationBlockedOnSignedContainer(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)
	f.sign(t, sessionID)

	err = f.service.AddDataFiles(ctx, sessionID, []digidoc.DataFile{{Name: "new.txt", Content: []byte("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to add/remove data file. Container contains signature(s)")

	err = f.service.RemoveDataFile(ctx, sessionID, "doc.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to add/remove data file. Container contains signature(s)")
}

func TestSignatureLookup(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)
	f.sign(t, sessionID)

	sigs, err := f.service.Signatures(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, digidoc.ProfileLT, sigs[0].Profile)

	sig, err := f.service.Signature(ctx, sessionID, "generated-1")
	require.NoError(t, err)
	assert.Equal(t, digidoc.ProfileLT, sig.Profile)

	_, err = f.service.Signature(ctx, sessionID, "unknown")
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))

	ids, err := f.service.SignatureIDs(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"generated-1"}, ids)
}

func TestConcurrentAddOfSameDataFileName(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)

	// Two callers race to add a file with the same name. Updates on one
	// session are linearized, so exactly one add wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.service.AddDataFiles(ctx, sessionID, []digidoc.DataFile{
				{Name: "shared.txt", Content: []byte{byte(i)}},
			})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, errdefs.IsKind(err, errdefs.KindDuplicateDataFile))
		}
	}
	assert.Equal(t, 1, failures)

	files, err := f.service.DataFiles(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestCloseEndsSession(t *testing.T) {
	f := newFixture(t, admission.Limits{})
	ctx := context.Background()

	sessionID, err := f.service.Create(ctx, f.tenant, "doc.asice", testFiles())
	require.NoError(t, err)

	f.service.Close(ctx, sessionID)

	_, _, err = f.service.Get(ctx, sessionID)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))

	// Closing an unknown session is a no-op.
	f.service.Close(ctx, "no-such-session")
}
