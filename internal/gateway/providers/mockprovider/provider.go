// Package mockprovider is an in-process signing provider for development
// and tests. It produces deterministic signature values.
package mockprovider

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/google/uuid"
	"github.com/karlivory/SiGa/internal/gateway/providers/mobileid"
	"github.com/karlivory/SiGa/internal/gateway/signing"
)

// Provider completes every transaction after PollsUntilComplete polls. The
// signature value is sha256 of the submitted digest.
type Provider struct {
	PollsUntilComplete int

	mu           sync.Mutex
	transactions map[string]*transaction
}

type transaction struct {
	digest []byte
	polls  int
}

func New(pollsUntilComplete int) *Provider {
	return &Provider{
		PollsUntilComplete: pollsUntilComplete,
		transactions:       make(map[string]*transaction),
	}
}

func (p *Provider) Certificate(ctx context.Context, identity signing.SignerIdentity) ([]byte, error) {
	sum := sha256.Sum256([]byte("mock-cert:" + identity.PersonIdentifier))
	return sum[:], nil
}

func (p *Provider) Initiate(ctx context.Context, digest []byte, identity signing.SignerIdentity) (string, string, error) {
	ref := uuid.New().String()
	p.mu.Lock()
	p.transactions[ref] = &transaction{digest: append([]byte(nil), digest...)}
	p.mu.Unlock()
	return ref, mobileid.VerificationCode(digest), nil
}

func (p *Provider) Poll(ctx context.Context, transactionRef string) (signing.PollResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.transactions[transactionRef]
	if !ok {
		return signing.PollResult{Status: signing.PollFailed, Reason: "INTERNAL_ERROR"}, nil
	}

	tx.polls++
	if tx.polls < p.PollsUntilComplete {
		return signing.PollResult{Status: signing.PollPending}, nil
	}

	sum := sha256.Sum256(tx.digest)
	delete(p.transactions, transactionRef)
	return signing.PollResult{Status: signing.PollComplete, Signature: sum[:]}, nil
}
