// Package signing drives the INIT -> poll -> FINISH state machine for
// asynchronous remote signing flows. Provider round trips never run under a
// session or flow lock; only digest and flow bookkeeping does.
package signing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config bounds a single signing flow's poll budget.
type Config struct {
	MaxPollAttempts int
	MaxPollElapsed  time.Duration
}

// Service owns all in-flight signing flows, keyed by generated signature id.
type Service struct {
	sessions   *session.Store
	containers digidoc.Service
	events     *event.Recorder
	clock      time2.Clock
	cfg        Config

	providers map[Method]Provider

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewService(sessions *session.Store, containers digidoc.Service, events *event.Recorder, clock time2.Clock, cfg Config) *Service {
	s := &Service{
		sessions:   sessions,
		containers: containers,
		events:     events,
		clock:      clock,
		cfg:        cfg,
		providers:  make(map[Method]Provider),
		flows:      make(map[string]*Flow),
	}
	// Flows die with their session, no matter whether it was closed
	// explicitly or removed by the expiry sweeper.
	sessions.OnRemove(s.DropSessionFlows)
	return s
}

// RegisterProvider installs the provider implementation for a method.
func (s *Service) RegisterProvider(method Method, p Provider) {
	s.providers[method] = p
}

// RemoteInit is the response of a detached-certificate signing init.
type RemoteInit struct {
	GeneratedSignatureID string
	DataToSign           []byte
}

// ProviderInit is the response of a mobile-id/smart-id signing init.
type ProviderInit struct {
	GeneratedSignatureID string
	ChallengeID          string
}

// StatusResult is the outcome of one poll request.
type StatusResult struct {
	Status string
}

// InitRemoteSigning computes the digest the client must sign with its own
// certificate and registers the pending flow.
func (s *Service) InitRemoteSigning(ctx context.Context, sessionID string, signerCert []byte, profile digidoc.Profile) (*RemoteInit, error) {
	scope := s.events.Begin(ctx, event.RemoteSigningInit, sessionID, nil)

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}
	if len(signerCert) == 0 {
		err := errdefs.NewInvalidSessionData("Signing certificate is required")
		scope.Exception(ctx, err)
		return nil, err
	}

	digest, err := s.containers.DataToSign(ctx, sess.Container, signerCert, profile)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}

	flow := s.newFlow(sessionID, MethodRemote, digest, signerCert, profile)
	s.register(flow)

	scope.Finish(ctx, map[string]string{"signature_id": flow.SignatureID})
	return &RemoteInit{GeneratedSignatureID: flow.SignatureID, DataToSign: digest}, nil
}

// FinishRemoteSigning merges the externally produced signature value into
// the session's container.
func (s *Service) FinishRemoteSigning(ctx context.Context, sessionID, signatureID string, signatureValue []byte) error {
	scope := s.events.Begin(ctx, event.RemoteSigningFinish, sessionID, map[string]string{"signature_id": signatureID})

	flow, err := s.flowForSession(sessionID, signatureID)
	if err != nil {
		scope.Exception(ctx, err)
		return err
	}

	flow.mu.Lock()
	defer flow.mu.Unlock()

	switch flow.Status {
	case StatusSignatureReceived:
		scope.Finish(ctx, nil)
		return nil
	case StatusErrored:
		err := errdefs.NewInvalidSessionData(fmt.Sprintf("Signing flow %s has failed: %s", signatureID, flow.FailureReason))
		scope.Exception(ctx, err)
		return err
	}

	if err := s.mergeLocked(ctx, flow, signatureValue); err != nil {
		scope.Exception(ctx, err)
		return err
	}
	scope.Finish(ctx, nil)
	return nil
}

// InitSigning starts a provider-driven flow: fetch the signer certificate,
// compute the digest, submit it and move the flow to OUTSTANDING.
func (s *Service) InitSigning(ctx context.Context, method Method, sessionID string, identity SignerIdentity, profile digidoc.Profile) (*ProviderInit, error) {
	scope := s.events.Begin(ctx, initEventName(method), sessionID, nil)

	result, err := s.initSigning(ctx, method, sessionID, identity, profile)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}
	scope.Finish(ctx, map[string]string{"signature_id": result.GeneratedSignatureID})
	return result, nil
}

func (s *Service) initSigning(ctx context.Context, method Method, sessionID string, identity SignerIdentity, profile digidoc.Profile) (*ProviderInit, error) {
	provider, err := s.provider(method)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	signerCert, err := provider.Certificate(ctx, identity)
	if err != nil {
		return nil, providerError(method, "failed to fetch signer certificate", err)
	}

	digest, err := s.containers.DataToSign(ctx, sess.Container, signerCert, profile)
	if err != nil {
		return nil, err
	}

	transactionRef, challengeID, err := provider.Initiate(ctx, digest, identity)
	if err != nil {
		return nil, providerError(method, "failed to initiate signing", err)
	}

	// The provider accepted the request, so the flow is outstanding the
	// moment it becomes visible. Flows are fully populated before they are
	// published; a registered flow is never mutated without flow.mu.
	flow := s.newFlow(sessionID, method, digest, signerCert, profile)
	flow.TransactionRef = transactionRef
	flow.ChallengeID = challengeID
	flow.Status = StatusOutstanding
	s.register(flow)

	return &ProviderInit{GeneratedSignatureID: flow.SignatureID, ChallengeID: challengeID}, nil
}

// Status performs one poll round trip and advances the flow. Each call is a
// discrete request/response; pending flows tell the caller to retry later.
func (s *Service) Status(ctx context.Context, sessionID, signatureID string) (*StatusResult, error) {
	flow, err := s.flowForSession(sessionID, signatureID)
	if err != nil {
		return nil, err
	}

	scope := s.events.Begin(ctx, statusEventName(flow.Method), sessionID, map[string]string{"signature_id": signatureID})
	result, err := s.pollOnce(ctx, flow)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}
	scope.Finish(ctx, map[string]string{"status": result.Status})
	return result, nil
}

func (s *Service) pollOnce(ctx context.Context, flow *Flow) (*StatusResult, error) {
	// Terminal flows answer from their stored outcome without another
	// provider round trip.
	flow.mu.Lock()
	switch flow.Status {
	case StatusSignatureReceived:
		flow.mu.Unlock()
		return &StatusResult{Status: TransactionSignature}, nil
	case StatusErrored:
		reason := flow.FailureReason
		flow.mu.Unlock()
		return &StatusResult{Status: reason}, nil
	case StatusInitiated:
		flow.mu.Unlock()
		return nil, errdefs.NewInvalidSessionData("Signing flow has no outstanding transaction")
	}
	transactionRef := flow.TransactionRef
	method := flow.Method
	flow.mu.Unlock()

	provider, err := s.provider(method)
	if err != nil {
		return nil, err
	}

	// Provider round trip happens outside every lock.
	poll, err := provider.Poll(ctx, transactionRef)
	if err != nil {
		return nil, providerError(method, "failed to poll signing status", err)
	}

	flow.mu.Lock()
	defer flow.mu.Unlock()

	// Another poll may have finished the flow while we were on the wire.
	switch flow.Status {
	case StatusSignatureReceived:
		return &StatusResult{Status: TransactionSignature}, nil
	case StatusErrored:
		return &StatusResult{Status: flow.FailureReason}, nil
	}

	switch poll.Status {
	case PollPending:
		flow.PollCount++
		if s.pollBudgetExceededLocked(flow) {
			s.transitionLocked(flow, StatusErrored)
			flow.FailureReason = TransactionExpired
			log.Info().
				Str("session_id", flow.SessionID).
				Str("signature_id", flow.SignatureID).
				Int("poll_count", flow.PollCount).
				Msg("Signing flow exceeded poll budget")
			return &StatusResult{Status: TransactionExpired}, nil
		}
		return &StatusResult{Status: TransactionOutstanding}, nil

	case PollComplete:
		if err := s.mergeLocked(ctx, flow, poll.Signature); err != nil {
			return nil, err
		}
		return &StatusResult{Status: TransactionSignature}, nil

	case PollFailed:
		s.transitionLocked(flow, StatusErrored)
		flow.FailureReason = poll.Reason
		return &StatusResult{Status: poll.Reason}, nil

	default:
		return nil, errdefs.NewInternal(errors.Errorf("unexpected poll status: %s", poll.Status))
	}
}

// mergeLocked validates and embeds the signature value via an exclusive
// session update, then finishes the flow. Callers hold flow.mu, so at most
// one merge can ever succeed per flow.
func (s *Service) mergeLocked(ctx context.Context, flow *Flow, signatureValue []byte) error {
	if !canTransition(flow.Status, StatusSignatureReceived) {
		return errdefs.NewInvalidSessionData(fmt.Sprintf("Signing flow %s is already finished", flow.SignatureID))
	}

	_, err := s.sessions.Update(ctx, flow.SessionID, func(sess *session.Session) error {
		info, err := s.containers.Open(ctx, sess.Container)
		if err != nil {
			return err
		}
		index := len(info.Signatures)

		next, _, err := s.containers.FinalizeSignature(ctx, sess.Container, flow.Digest, signatureValue, flow.SignerCert, flow.Profile)
		if err != nil {
			return errdefs.NewInvalidSessionData(fmt.Sprintf("Unable to finalize signature: %v", err))
		}

		sess.Container = next
		sess.SignatureIDs[flow.SignatureID] = index
		return nil
	})
	if err != nil {
		s.transitionLocked(flow, StatusErrored)
		flow.FailureReason = "SIGNATURE_FINALIZING_ERROR"
		return err
	}

	s.transitionLocked(flow, StatusSignatureReceived)
	return nil
}

// DropSessionFlows discards every flow owned by the session. Runs via the
// session store's on-remove hook when the session is closed or expires.
func (s *Service) DropSessionFlows(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, flow := range s.flows {
		if flow.SessionID == sessionID {
			delete(s.flows, id)
		}
	}
}

func (s *Service) newFlow(sessionID string, method Method, digest, signerCert []byte, profile digidoc.Profile) *Flow {
	return &Flow{
		SignatureID: uuid.New().String(),
		SessionID:   sessionID,
		Method:      method,
		Digest:      digest,
		SignerCert:  signerCert,
		Profile:     profile,
		Status:      StatusInitiated,
		StartedAt:   s.clock.Now(),
	}
}

// register publishes a fully populated flow for lookup.
func (s *Service) register(flow *Flow) {
	s.mu.Lock()
	s.flows[flow.SignatureID] = flow
	s.mu.Unlock()
}

// flowForSession looks a flow up by signature id and verifies it belongs to
// the named session.
func (s *Service) flowForSession(sessionID, signatureID string) (*Flow, error) {
	s.mu.Lock()
	flow, ok := s.flows[signatureID]
	s.mu.Unlock()
	if !ok {
		return nil, errdefs.NewNotFound(fmt.Sprintf("Signing flow for signature [%s] not found", signatureID))
	}
	if flow.SessionID != sessionID {
		return nil, errdefs.NewInvalidSessionData("Signature does not belong to this session")
	}
	return flow, nil
}

func (s *Service) provider(method Method) (Provider, error) {
	p, ok := s.providers[method]
	if !ok {
		return nil, errdefs.NewInternal(errors.Errorf("no provider registered for method %s", method))
	}
	return p, nil
}

func (s *Service) pollBudgetExceededLocked(flow *Flow) bool {
	if s.cfg.MaxPollAttempts > 0 && flow.PollCount >= s.cfg.MaxPollAttempts {
		return true
	}
	if s.cfg.MaxPollElapsed > 0 && s.clock.Since(flow.StartedAt) > s.cfg.MaxPollElapsed {
		return true
	}
	return false
}

func (s *Service) transitionLocked(flow *Flow, next Status) {
	if !canTransition(flow.Status, next) {
		// Terminal states never transition; this is a programming error.
		log.Error().
			Str("signature_id", flow.SignatureID).
			Str("from", string(flow.Status)).
			Str("to", string(next)).
			Msg("Invalid signing flow transition")
		return
	}
	flow.Status = next
}

func initEventName(method Method) event.Name {
	if method == MethodSmartID {
		return event.SmartIDSigningInit
	}
	return event.MobileIDSigningInit
}

func statusEventName(method Method) event.Name {
	switch method {
	case MethodSmartID:
		return event.SmartIDSigningStatus
	case MethodMobileID:
		return event.MobileIDSigningStatus
	default:
		return event.RemoteSigningFinish
	}
}

func providerError(method Method, msg string, err error) error {
	code := errdefs.CodeRemoteSigning
	switch method {
	case MethodMobileID:
		code = errdefs.CodeMobileID
	case MethodSmartID:
		code = errdefs.CodeSmartID
	}
	return errdefs.NewSigningProvider(code, msg, err)
}
