package signing

import (
	"context"
	"sync"
	"time"

	"github.com/karlivory/SiGa/internal/gateway/digidoc"
)

// Method selects the remote signing provider for a flow.
type Method string

const (
	MethodMobileID Method = "MOBILE_ID"
	MethodSmartID  Method = "SMART_ID"
	MethodRemote   Method = "REMOTE"
)

// Status is the signing flow state.
type Status string

const (
	StatusInitiated         Status = "INITIATED"
	StatusOutstanding       Status = "OUTSTANDING"
	StatusSignatureReceived Status = "SIGNATURE_RECEIVED"
	StatusErrored           Status = "ERRORED"
)

// Provider-facing poll outcome.
type PollStatus string

const (
	PollPending  PollStatus = "PENDING"
	PollComplete PollStatus = "COMPLETE"
	PollFailed   PollStatus = "FAILED"
)

// Transaction status strings surfaced to API clients, matching the provider
// status vocabulary clients already consume.
const (
	TransactionOutstanding = "OUTSTANDING_TRANSACTION"
	TransactionSignature   = "SIGNATURE"
	TransactionExpired     = "EXPIRED_TRANSACTION"
)

// SignerIdentity identifies the signer towards a remote provider.
type SignerIdentity struct {
	PersonIdentifier string
	PhoneNumber      string
	Country          string
}

// PollResult is one poll response from a provider.
type PollResult struct {
	Status    PollStatus
	Signature []byte
	// Reason carries the provider failure code when Status is PollFailed
	// (user cancelled, timeout, wrong PIN, certificate revoked, ...).
	Reason string
}

// Provider is the strategy interface implemented once per remote signing
// provider. All methods are network round trips and must respect ctx.
type Provider interface {
	// Certificate fetches the signer's certificate used to compute the
	// data-to-be-signed digest.
	Certificate(ctx context.Context, identity SignerIdentity) ([]byte, error)

	// Initiate submits the digest for signing and returns the provider's
	// transaction reference plus the verification code shown to the user.
	Initiate(ctx context.Context, digest []byte, identity SignerIdentity) (transactionRef string, challengeID string, err error)

	// Poll reports the transaction's current state.
	Poll(ctx context.Context, transactionRef string) (PollResult, error)
}

// Flow is the transient state machine instance for one asynchronous signing
// attempt. All mutation happens under mu.
type Flow struct {
	mu sync.Mutex

	SignatureID    string
	SessionID      string
	Method         Method
	Digest         []byte
	SignerCert     []byte
	Profile        digidoc.Profile
	TransactionRef string
	ChallengeID    string
	Status         Status
	PollCount      int
	StartedAt      time.Time
	FailureReason  string
}

// A flow never transitions backward; SIGNATURE_RECEIVED and ERRORED are
// terminal.
func canTransition(current, next Status) bool {
	switch current {
	case StatusInitiated:
		return next == StatusOutstanding || next == StatusSignatureReceived || next == StatusErrored
	case StatusOutstanding:
		return next == StatusOutstanding || next == StatusSignatureReceived || next == StatusErrored
	default:
		return false
	}
}
