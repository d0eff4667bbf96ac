// Package containers exposes the session-scoped container lifecycle: create
// or upload a container, manage its data files, read its signatures and
// close the session.
package containers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/karlivory/SiGa/internal/gateway/admission"
	"github.com/karlivory/SiGa/internal/gateway/digidoc"
	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/karlivory/SiGa/internal/gateway/event"
	"github.com/karlivory/SiGa/internal/gateway/session"
)

// Service orchestrates container operations against the session store.
type Service struct {
	sessions   *session.Store
	containers digidoc.Service
	events     *event.Recorder
}

func NewService(sessions *session.Store, containers digidoc.Service, events *event.Recorder) *Service {
	return &Service{
		sessions:   sessions,
		containers: containers,
		events:     events,
	}
}

// Create assembles a new container from the given data files and opens a
// session for it. Returns the new session id.
func (s *Service) Create(ctx context.Context, tenant admission.Tenant, containerName string, files []digidoc.DataFile) (string, error) {
	scope := s.events.Begin(ctx, event.CreateContainer, "", map[string]string{"container_name": containerName})

	if len(files) == 0 {
		err := errdefs.NewInvalidSessionData("Data files are needed to create container")
		scope.Exception(ctx, err)
		return "", err
	}

	raw, err := s.containers.Build(ctx, files)
	if err != nil {
		scope.Exception(ctx, err)
		return "", err
	}

	sess, err := s.sessions.Create(ctx, tenant, raw, containerName)
	if err != nil {
		scope.Exception(ctx, err)
		return "", err
	}

	if _, err := s.sessions.Update(ctx, sess.ID, func(next *session.Session) error {
		for _, f := range files {
			next.DataFileDigests[f.Name] = contentDigest(f.Content)
		}
		return nil
	}); err != nil {
		s.sessions.Close(ctx, sess.ID)
		scope.Exception(ctx, err)
		return "", err
	}

	scope.Finish(ctx, map[string]string{"session_id": sess.ID})
	return sess.ID, nil
}

// Upload opens a session around existing container bytes. The bytes are
// validated before any session state is created.
func (s *Service) Upload(ctx context.Context, tenant admission.Tenant, containerName string, raw []byte) (string, error) {
	scope := s.events.Begin(ctx, event.UploadContainer, "", map[string]string{"container_name": containerName})

	info, err := s.containers.Open(ctx, raw)
	if err != nil {
		scope.Exception(ctx, err)
		return "", err
	}

	sess, err := s.sessions.Create(ctx, tenant, raw, containerName)
	if err != nil {
		scope.Exception(ctx, err)
		return "", err
	}

	if _, err := s.sessions.Update(ctx, sess.ID, func(next *session.Session) error {
		for _, f := range info.DataFiles {
			next.DataFileDigests[f.Name] = contentDigest(f.Content)
		}
		return nil
	}); err != nil {
		s.sessions.Close(ctx, sess.ID)
		scope.Exception(ctx, err)
		return "", err
	}

	scope.Finish(ctx, map[string]string{"session_id": sess.ID})
	return sess.ID, nil
}

// Get returns the session's current container bytes and name.
func (s *Service) Get(ctx context.Context, sessionID string) (string, []byte, error) {
	scope := s.events.Begin(ctx, event.GetContainer, sessionID, nil)

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		scope.Exception(ctx, err)
		return "", nil, err
	}

	scope.Finish(ctx, nil)
	return sess.ContainerName, sess.Container, nil
}

// Close ends the session. Closing an unknown session is a no-op. In-flight
// signing flows are discarded by the store's on-remove hook.
func (s *Service) Close(ctx context.Context, sessionID string) {
	scope := s.events.Begin(ctx, event.DeleteContainer, sessionID, nil)
	s.sessions.Close(ctx, sessionID)
	scope.Finish(ctx, nil)
}

// AddDataFiles appends data files to an unsigned container. All files are
// added in one atomic session update.
func (s *Service) AddDataFiles(ctx context.Context, sessionID string, files []digidoc.DataFile) error {
	scope := s.events.Begin(ctx, event.AddDataFile, sessionID, map[string]string{"file_count": strconv.Itoa(len(files))})

	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if err := s.requireUnsigned(ctx, sess.Container); err != nil {
			return err
		}
		next := sess.Container
		for _, f := range files {
			var err error
			next, err = s.containers.AddDataFile(ctx, next, f)
			if err != nil {
				return err
			}
			sess.DataFileDigests[f.Name] = contentDigest(f.Content)
		}
		sess.Container = next
		return nil
	})
	if err != nil {
		scope.Exception(ctx, err)
		return err
	}
	scope.Finish(ctx, nil)
	return nil
}

// RemoveDataFile removes the named data file from an unsigned container.
func (s *Service) RemoveDataFile(ctx context.Context, sessionID, name string) error {
	scope := s.events.Begin(ctx, event.DeleteDataFile, sessionID, map[string]string{"file_name": name})

	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if err := s.requireUnsigned(ctx, sess.Container); err != nil {
			return err
		}
		next, err := s.containers.RemoveDataFile(ctx, sess.Container, name)
		if err != nil {
			return err
		}
		delete(sess.DataFileDigests, name)
		sess.Container = next
		return nil
	})
	if err != nil {
		scope.Exception(ctx, err)
		return err
	}
	scope.Finish(ctx, nil)
	return nil
}

// DataFiles lists the container's data files.
func (s *Service) DataFiles(ctx context.Context, sessionID string) ([]digidoc.DataFile, error) {
	scope := s.events.Begin(ctx, event.GetDataFilesList, sessionID, nil)

	info, err := s.open(ctx, sessionID)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}
	scope.Finish(ctx, nil)
	return info.DataFiles, nil
}

// Signatures lists the container's embedded signatures.
func (s *Service) Signatures(ctx context.Context, sessionID string) ([]digidoc.Signature, error) {
	scope := s.events.Begin(ctx, event.GetSignaturesList, sessionID, nil)

	info, err := s.open(ctx, sessionID)
	if err != nil {
		scope.Exception(ctx, err)
		return nil, err
	}
	scope.Finish(ctx, nil)
	return info.Signatures, nil
}

// Signature resolves a generated signature id to the embedded signature it
// produced.
func (s *Service) Signature(ctx context.Context, sessionID, generatedSignatureID string) (digidoc.Signature, error) {
	scope := s.events.Begin(ctx, event.GetSignature, sessionID, map[string]string{"signature_id": generatedSignatureID})

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		scope.Exception(ctx, err)
		return digidoc.Signature{}, err
	}

	index, ok := sess.SignatureIDs[generatedSignatureID]
	if !ok {
		err := errdefs.NewNotFound(fmt.Sprintf("Signature with id [%s] not found", generatedSignatureID))
		scope.Exception(ctx, err)
		return digidoc.Signature{}, err
	}

	info, err := s.containers.Open(ctx, sess.Container)
	if err != nil {
		scope.Exception(ctx, err)
		return digidoc.Signature{}, err
	}
	if index < 0 || index >= len(info.Signatures) {
		err := errdefs.NewNotFound(fmt.Sprintf("Signature with id [%s] not found", generatedSignatureID))
		scope.Exception(ctx, err)
		return digidoc.Signature{}, err
	}

	scope.Finish(ctx, nil)
	return info.Signatures[index], nil
}

// SignatureIDs lists the generated signature ids known to the session, in
// stable order.
func (s *Service) SignatureIDs(ctx context.Context, sessionID string) ([]string, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sess.SignatureIDs))
	for id := range sess.SignatureIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Service) open(ctx context.Context, sessionID string) (*digidoc.Info, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.containers.Open(ctx, sess.Container)
}

// Data file membership is frozen the moment the first signature lands.
func (s *Service) requireUnsigned(ctx context.Context, raw []byte) error {
	info, err := s.containers.Open(ctx, raw)
	if err != nil {
		return err
	}
	if len(info.Signatures) > 0 {
		return errdefs.NewInvalidSessionData("Unable to add/remove data file. Container contains signature(s)")
	}
	return nil
}

func contentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
