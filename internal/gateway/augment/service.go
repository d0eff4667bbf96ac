// Package augment upgrades embedded signatures to the archival profile by
// attaching archive timestamps from the trusted timestamping authority.
package augment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
	"github.com/karlivory/SiGa/internal/gateway/tsa"
)

// Config lists the signature profiles eligible for augmentation. Profiles
// outside this set are rejected before any TSA traffic happens.
type Config struct {
	AugmentableProfiles []digidoc.Profile
}

// DefaultConfig permits LT and LTA signatures, the archival-upgrade set.
func DefaultConfig() Config {
	return Config{AugmentableProfiles: []digidoc.Profile{digidoc.ProfileLT, digidoc.ProfileLTA}}
}

// Service augments all signatures of a session's container. TSA round trips
// run on a private copy outside the session lock; the result is committed in
// one atomic update that re-validates the signature set.
type Service struct {
	sessions    *session.Store
	containers  digidoc.Service
	timestamper tsa.Service
	events      *event.Recorder
	augmentable map[digidoc.Profile]bool
}

func NewService(sessions *session.Store, containers digidoc.Service, timestamper tsa.Service, events *event.Recorder, cfg Config) *Service {
	augmentable := make(map[digidoc.Profile]bool, len(cfg.AugmentableProfiles))
	for _, p := range cfg.AugmentableProfiles {
		augmentable[p] = true
	}
	return &Service{
		sessions:    sessions,
		containers:  containers,
		timestamper: timestamper,
		events:      events,
		augmentable: augmentable,
	}
}

// Augment upgrades every signature in the session's container to LTA. The
// container is replaced only when every signature was augmented; any failure
// leaves the session untouched.
func (s *Service) Augment(ctx context.Context, sessionID string) error {
	scope := s.events.Begin(ctx, event.AugmentSignatures, sessionID, nil)

	if err := s.augment(ctx, sessionID); err != nil {
		scope.Exception(ctx, err)
		return err
	}
	scope.Finish(ctx, nil)
	return nil
}

func (s *Service) augment(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	// Eligibility checks and TSA round trips run on this private copy. The
	// session lock is only taken for the final commit.
	next, augmented, err := s.augmentContainer(ctx, sessionID, sess.Container)
	if err != nil {
		return err
	}

	_, err = s.sessions.Update(ctx, sessionID, func(cur *session.Session) error {
		if err := s.ensureUnchanged(ctx, cur.Container, augmented); err != nil {
			return err
		}
		cur.Container = next
		return nil
	})
	return err
}

func (s *Service) augmentContainer(ctx context.Context, sessionID string, raw []byte) ([]byte, []digidoc.Signature, error) {
	info, err := s.containers.Open(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	if len(info.Signatures) == 0 {
		return nil, nil, errdefs.NewInvalidSessionData("Unable to augment. Container does not contain any signatures")
	}

	// Every signature must be eligible before the first TSA request is
	// made. A mixed container is rejected as a whole.
	for _, sig := range info.Signatures {
		if !s.augmentable[sig.Profile] {
			return nil, nil, errdefs.NewInvalidSessionData(fmt.Sprintf("Cannot augment signature profile %s", sig.Profile))
		}
	}

	next := raw
	for i, sig := range info.Signatures {
		sigBytes, err := s.containers.SignatureBytes(ctx, next, sig.ID)
		if err != nil {
			return nil, nil, err
		}

		token, err := s.requestTimestamp(ctx, sessionID, i, sigBytes)
		if err != nil {
			return nil, nil, err
		}

		next, err = s.containers.AppendArchiveTimestamp(ctx, next, sig.ID, token)
		if err != nil {
			return nil, nil, err
		}
	}
	return next, info.Signatures, nil
}

// ensureUnchanged rejects the commit when the signature set diverged from
// the one the timestamps were fetched for.
func (s *Service) ensureUnchanged(ctx context.Context, raw []byte, augmented []digidoc.Signature) error {
	info, err := s.containers.Open(ctx, raw)
	if err != nil {
		return err
	}
	if len(info.Signatures) != len(augmented) {
		return errdefs.NewInvalidSessionData("Unable to augment. Container signatures changed")
	}
	for i, sig := range info.Signatures {
		if sig.ID != augmented[i].ID || sig.Profile != augmented[i].Profile {
			return errdefs.NewInvalidSessionData("Unable to augment. Container signatures changed")
		}
	}
	return nil
}

func (s *Service) requestTimestamp(ctx context.Context, sessionID string, index int, sigBytes []byte) ([]byte, error) {
	scope := s.events.Begin(ctx, event.TSARequest, sessionID, map[string]string{"signature_index": strconv.Itoa(index)})
	token, err := s.timestamper.RequestArchiveTimestamp(ctx, sigBytes)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, errdefs.NewSigningProvider(errdefs.CodeInternal, "Unable to augment signatures", err)
	}
	scope.Finish(ctx, nil)
	return token, nil
}
