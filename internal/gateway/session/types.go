package session

import (
	"time"

	"github.com/karlivory/SiGa/internal/gateway/admission"
)

// Session is the per-container working state held between client requests.
// Container bytes are replaced atomically on every mutation; a Session value
// handed out by the store is always a private copy.
type Session struct {
	ID            string
	Tenant        admission.Tenant
	ContainerName string
	Container     []byte

	// SignatureIDs maps generated signature ids to the positional index of
	// the embedded signature inside the container. Signatures still in
	// flight are tracked by the signing flows, not here.
	SignatureIDs map[string]int

	// DataFileDigests holds per-data-file digests for duplicate detection.
	DataFileDigests map[string]string

	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Clone returns a deep copy so callers never share mutable state with the
// store.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Container = append([]byte(nil), s.Container...)
	cp.SignatureIDs = make(map[string]int, len(s.SignatureIDs))
	for k, v := range s.SignatureIDs {
		cp.SignatureIDs[k] = v
	}
	cp.DataFileDigests = make(map[string]string, len(s.DataFileDigests))
	for k, v := range s.DataFileDigests {
		cp.DataFileDigests[k] = v
	}
	return &cp
}
