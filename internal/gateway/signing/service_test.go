package signing

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Certificate(ctx context.Context, identity SignerIdentity) ([]byte, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProvider) Initiate(ctx context.Context, digest []byte, identity SignerIdentity) (string, string, error) {
	args := m.Called(ctx, digest, identity)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockProvider) Poll(ctx context.Context, transactionRef string) (PollResult, error) {
	args := m.Called(ctx, transactionRef)
	return args.Get(0).(PollResult), args.Error(1)
}

type nopSink struct{}

func (nopSink) RecordEvent(context.Context, event.Event) {}

type fixture struct {
	service  *Service
	sessions *session.Store
	digidoc  digidoc.Service
	clock    *time2.MockClock
	provider *MockProvider
	sess     *session.Session
	cert     []byte
}

func newFixture(t *testing.T, cfg Config) *fixture {
	clock := time2.NewMockClock(time.Now())
	controller := admission.NewController(admission.Limits{})
	sessions := session.NewStore(controller, nil, clock, time.Hour)
	codec := digidoc.NewMemService()
	events := event.NewRecorder(nopSink{}, clock)

	ctx := context.Background()
	raw, err := codec.Build(ctx, []digidoc.DataFile{{Name: "doc.txt", Content: []byte("hello")}})
	require.NoError(t, err)

	tenant := admission.Tenant{ClientName: "c", ServiceName: "s", ServiceUUID: "svc"}
	sess, err := sessions.Create(ctx, tenant, raw, "doc.asice")
	require.NoError(t, err)

	provider := new(MockProvider)
	svc := NewService(sessions, codec, events, clock, cfg)
	svc.RegisterProvider(MethodMobileID, provider)

	return &fixture{
		service:  svc,
		sessions: sessions,
		digidoc:  codec,
		clock:    clock,
		provider: provider,
		sess:     sess,
		cert:     []byte("signer-cert"),
	}
}

func (f *fixture) expectedDigest(t *testing.T) []byte {
	digest, err := f.digidoc.DataToSign(context.Background(), f.sess.Container, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)
	return digest
}

func TestRemoteSigningFlow(t *testing.T) {
	f := newFixture(t, Config{MaxPollAttempts: 10})
	ctx := context.Background()

	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)
	assert.NotEmpty(t, init.GeneratedSignatureID)
	assert.Equal(t, f.expectedDigest(t), init.DataToSign)

	err = f.service.FinishRemoteSigning(ctx, f.sess.ID, init.GeneratedSignatureID, []byte("signature-value"))
	require.NoError(t, err)

	// The signature landed in the session's container.
	got, err := f.sessions.Get(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{init.GeneratedSignatureID: 0}, got.SignatureIDs)

	info, err := f.digidoc.Open(ctx, got.Container)
	require.NoError(t, err)
	require.Len(t, info.Signatures, 1)
	assert.Equal(t, []byte("signature-value"), info.Signatures[0].Value)

	// Finishing again is a no-op.
	err = f.service.FinishRemoteSigning(ctx, f.sess.ID, init.GeneratedSignatureID, []byte("other"))
	require.NoError(t, err)
	info, _ = f.digidoc.Open(ctx, got.Container)
	assert.Len(t, info.Signatures, 1)
}

func TestFinishRemoteSigningChecksOwnership(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)

	err = f.service.FinishRemoteSigning(ctx, "other-session", init.GeneratedSignatureID, []byte("v"))
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindInvalidSessionData))

	err = f.service.FinishRemoteSigning(ctx, f.sess.ID, "unknown-signature", []byte("v"))
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestProviderSigningFlow(t *testing.T) {
	f := newFixture(t, Config{MaxPollAttempts: 10})
	ctx := context.Background()
	identity := SignerIdentity{PersonIdentifier: "38001085718", PhoneNumber: "+37260000766"}

	digest := f.expectedDigest(t)
	f.provider.On("Certificate", mock.Anything, identity).Return(f.cert, nil)
	f.provider.On("Initiate", mock.Anything, digest, identity).Return("tx-1", "1234", nil)

	init, err := f.service.InitSigning(ctx, MethodMobileID, f.sess.ID, identity, digidoc.ProfileLT)
	require.NoError(t, err)
	assert.Equal(t, "1234", init.ChallengeID)

	// First poll: still outstanding.
	f.provider.On("Poll", mock.Anything, "tx-1").Return(PollResult{Status: PollPending}, nil).Once()
	status, err := f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionOutstanding, status.Status)

	// Second poll: signature arrives and is merged.
	f.provider.On("Poll", mock.Anything, "tx-1").Return(PollResult{Status: PollComplete, Signature: []byte("sig")}, nil).Once()
	status, err = f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionSignature, status.Status)

	got, err := f.sessions.Get(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Contains(t, got.SignatureIDs, init.GeneratedSignatureID)

	// Polling a finished flow answers without another provider round trip.
	status, err = f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionSignature, status.Status)
	f.provider.AssertNumberOfCalls(t, "Poll", 2)
}

func TestProviderFailureEndsFlow(t *testing.T) {
	f := newFixture(t, Config{MaxPollAttempts: 10})
	ctx := context.Background()
	identity := SignerIdentity{PersonIdentifier: "38001085718", PhoneNumber: "+37260000766"}

	f.provider.On("Certificate", mock.Anything, identity).Return(f.cert, nil)
	f.provider.On("Initiate", mock.Anything, mock.Anything, identity).Return("tx-1", "1234", nil)
	init, err := f.service.InitSigning(ctx, MethodMobileID, f.sess.ID, identity, digidoc.ProfileLT)
	require.NoError(t, err)

	f.provider.On("Poll", mock.Anything, "tx-1").Return(PollResult{Status: PollFailed, Reason: "USER_CANCEL"}, nil).Once()
	status, err := f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, "USER_CANCEL", status.Status)

	// The outcome is terminal and repeatable.
	status, err = f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, "USER_CANCEL", status.Status)

	// No signature was merged.
	got, err := f.sessions.Get(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SignatureIDs)
}

func TestPollBudgetAttemptsExceeded(t *testing.T) {
	f := newFixture(t, Config{MaxPollAttempts: 2})
	ctx := context.Background()
	identity := SignerIdentity{PersonIdentifier: "38001085718", PhoneNumber: "+37260000766"}

	f.provider.On("Certificate", mock.Anything, identity).Return(f.cert, nil)
	f.provider.On("Initiate", mock.Anything, mock.Anything, identity).Return("tx-1", "1234", nil)
	init, err := f.service.InitSigning(ctx, MethodMobileID, f.sess.ID, identity, digidoc.ProfileLT)
	require.NoError(t, err)

	f.provider.On("Poll", mock.Anything, "tx-1").Return(PollResult{Status: PollPending}, nil)

	status, err := f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionOutstanding, status.Status)

	status, err = f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionExpired, status.Status)
}

func TestPollBudgetElapsedExceeded(t *testing.T) {
	f := newFixture(t, Config{MaxPollElapsed: time.Minute})
	ctx := context.Background()
	identity := SignerIdentity{PersonIdentifier: "38001085718", PhoneNumber: "+37260000766"}

	f.provider.On("Certificate", mock.Anything, identity).Return(f.cert, nil)
	f.provider.On("Initiate", mock.Anything, mock.Anything, identity).Return("tx-1", "1234", nil)
	init, err := f.service.InitSigning(ctx, MethodMobileID, f.sess.ID, identity, digidoc.ProfileLT)
	require.NoError(t, err)

	f.provider.On("Poll", mock.Anything, "tx-1").Return(PollResult{Status: PollPending}, nil)

	f.clock.Advance(2 * time.Minute)
	status, err := f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.NoError(t, err)
	assert.Equal(t, TransactionExpired, status.Status)
}

func TestStatusChecksOwnership(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)

	_, err = f.service.Status(ctx, "other-session", init.GeneratedSignatureID)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindInvalidSessionData))
}

func (f *fixture) flowCount() int {
	f.service.mu.Lock()
	defer f.service.mu.Unlock()
	return len(f.service.flows)
}

func TestExpiredSessionSweepDropsFlows(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)
	require.Equal(t, 1, f.flowCount())

	f.clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, f.sessions.SweepExpired(ctx))
	assert.Equal(t, 0, f.flowCount())

	err = f.service.FinishRemoteSigning(ctx, f.sess.ID, init.GeneratedSignatureID, []byte("v"))
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestClosedSessionDropsFlows(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)

	f.sessions.Close(ctx, f.sess.ID)
	assert.Equal(t, 0, f.flowCount())
}

func TestStatusOnRemoteFlowWithoutTransaction(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	// A remote flow is fully registered at init time but has no provider
	// transaction to poll.
	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)

	_, err = f.service.Status(ctx, f.sess.ID, init.GeneratedSignatureID)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindInvalidSessionData))
}

func TestDropSessionFlows(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	init, err := f.service.InitRemoteSigning(ctx, f.sess.ID, f.cert, digidoc.ProfileLT)
	require.NoError(t, err)

	f.service.DropSessionFlows(f.sess.ID)

	err = f.service.FinishRemoteSigning(ctx, f.sess.ID, init.GeneratedSignatureID, []byte("v"))
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestInitSigningWithoutProvider(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.service.InitSigning(ctx, MethodSmartID, f.sess.ID, SignerIdentity{PersonIdentifier: "x"}, digidoc.ProfileLT)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindInternal))
}
