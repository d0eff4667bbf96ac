package digidoc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/pkg/errors"
)

// MemService is a self-contained container codec backed by a JSON envelope.
// It implements the full Service contract so the gateway can run and be
// tested without a compliant ASiC library; production deployments plug in a
// real implementation behind the same interface.
type MemService struct{}

func NewMemService() *MemService {
	return &MemService{}
}

type envelope struct {
	Version    int                 `json:"version"`
	DataFiles  []dataFileEnvelope  `json:"dataFiles"`
	Signatures []signatureEnvelope `json:"signatures"`
}

type dataFileEnvelope struct {
	Name     string `json:"name"`
	Content  []byte `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

type signatureEnvelope struct {
	ID                string    `json:"id"`
	Profile           Profile   `json:"profile"`
	SignerInfo        string    `json:"signerInfo,omitempty"`
	SignedAt          time.Time `json:"signedAt"`
	SignerCert        []byte    `json:"signerCert,omitempty"`
	Value             []byte    `json:"value"`
	DataDigest        []byte    `json:"dataDigest"`
	ArchiveTimestamps [][]byte  `json:"archiveTimestamps,omitempty"`
}

func (s *MemService) Build(_ context.Context, files []DataFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, errors.New("container must contain at least one data file")
	}

	env := &envelope{Version: 1}
	for _, f := range files {
		if containsDataFile(env, f.Name) {
			return nil, errdefs.NewDuplicateDataFile(fmt.Sprintf("Duplicate data files not allowed: %s", f.Name))
		}
		env.DataFiles = append(env.DataFiles, dataFileEnvelope{Name: f.Name, Content: f.Content, MimeType: f.MimeType})
	}

	return marshalEnvelope(env)
}

func (s *MemService) Open(_ context.Context, raw []byte) (*Info, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}

	// Uploaded containers may carry collisions the builder would have
	// rejected; surface them here the same way.
	seen := make(map[string]struct{}, len(env.DataFiles))
	for _, f := range env.DataFiles {
		if _, ok := seen[f.Name]; ok {
			return nil, errdefs.NewDuplicateDataFile(fmt.Sprintf("Container contains duplicate data file: %s", f.Name))
		}
		seen[f.Name] = struct{}{}
	}

	info := &Info{}
	for _, f := range env.DataFiles {
		info.DataFiles = append(info.DataFiles, DataFile{Name: f.Name, Content: f.Content, MimeType: f.MimeType})
	}
	for _, sig := range env.Signatures {
		info.Signatures = append(info.Signatures, Signature{
			ID:                sig.ID,
			Profile:           sig.Profile,
			SignerInfo:        sig.SignerInfo,
			SignedAt:          sig.SignedAt,
			Value:             sig.Value,
			ArchiveTimestamps: sig.ArchiveTimestamps,
		})
	}
	return info, nil
}

func (s *MemService) AddDataFile(_ context.Context, raw []byte, file DataFile) ([]byte, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if containsDataFile(env, file.Name) {
		return nil, errdefs.NewDuplicateDataFile(fmt.Sprintf("Duplicate data files not allowed: %s", file.Name))
	}

	env.DataFiles = append(env.DataFiles, dataFileEnvelope{Name: file.Name, Content: file.Content, MimeType: file.MimeType})
	return marshalEnvelope(env)
}

func (s *MemService) RemoveDataFile(_ context.Context, raw []byte, name string) ([]byte, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}

	kept := env.DataFiles[:0]
	found := false
	for _, f := range env.DataFiles {
		if f.Name == name {
			found = true
			continue
		}
		kept = append(kept, f)
	}
	if !found {
		return nil, errdefs.NewNotFound(fmt.Sprintf("Data file named %s not found", name))
	}

	env.DataFiles = kept
	return marshalEnvelope(env)
}

func (s *MemService) DataToSign(_ context.Context, raw []byte, signerCert []byte, profile Profile) ([]byte, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return dataDigest(env, signerCert, profile), nil
}

func (s *MemService) FinalizeSignature(_ context.Context, raw []byte, digest []byte, signatureValue []byte, signerCert []byte, profile Profile) ([]byte, Signature, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, Signature{}, err
	}
	if len(signatureValue) == 0 {
		return nil, Signature{}, errors.New("empty signature value")
	}
	if !bytes.Equal(digest, dataDigest(env, signerCert, profile)) {
		return nil, Signature{}, errors.New("signature digest does not match data to be signed")
	}

	sig := signatureEnvelope{
		ID:         fmt.Sprintf("S%d", len(env.Signatures)),
		Profile:    profile,
		SignerInfo: signerInfoFromCert(signerCert),
		SignedAt:   time.Now().UTC(),
		SignerCert: signerCert,
		Value:      signatureValue,
		DataDigest: digest,
	}
	env.Signatures = append(env.Signatures, sig)

	out, err := marshalEnvelope(env)
	if err != nil {
		return nil, Signature{}, err
	}
	return out, Signature{
		ID:         sig.ID,
		Profile:    sig.Profile,
		SignerInfo: sig.SignerInfo,
		SignedAt:   sig.SignedAt,
		Value:      sig.Value,
	}, nil
}

func (s *MemService) SignatureBytes(_ context.Context, raw []byte, signatureID string) ([]byte, error) {
	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}
	for _, sig := range env.Signatures {
		if sig.ID == signatureID {
			return json.Marshal(sig)
		}
	}
	return nil, errdefs.NewNotFound(fmt.Sprintf("Signature with id %s not found", signatureID))
}

func (s *MemService) AppendArchiveTimestamp(_ context.Context, raw []byte, signatureID string, token []byte) ([]byte, error) {
	if len(token) == 0 {
		return nil, errors.New("empty archive timestamp token")
	}

	env, err := unmarshalEnvelope(raw)
	if err != nil {
		return nil, err
	}
	for i := range env.Signatures {
		if env.Signatures[i].ID != signatureID {
			continue
		}
		env.Signatures[i].ArchiveTimestamps = append(env.Signatures[i].ArchiveTimestamps, token)
		// Attaching archive evidence lifts the signature to the archival
		// profile; repeat attachments keep it there.
		env.Signatures[i].Profile = ProfileLTA
		return marshalEnvelope(env)
	}
	return nil, errdefs.NewNotFound(fmt.Sprintf("Signature with id %s not found", signatureID))
}

func containsDataFile(env *envelope, name string) bool {
	for _, f := range env.DataFiles {
		if f.Name == name {
			return true
		}
	}
	return false
}

// dataDigest binds the data file set, signer certificate and profile into a
// single digest. File order is part of the digest, matching the envelope.
func dataDigest(env *envelope, signerCert []byte, profile Profile) []byte {
	h := sha256.New()
	for _, f := range env.DataFiles {
		h.Write([]byte(f.Name))
		sum := sha256.Sum256(f.Content)
		h.Write(sum[:])
	}
	h.Write(signerCert)
	h.Write([]byte(profile))
	return h.Sum(nil)
}

func signerInfoFromCert(cert []byte) string {
	if len(cert) == 0 {
		return ""
	}
	sum := sha256.Sum256(cert)
	return fmt.Sprintf("CERT-%x", sum[:8])
}

func marshalEnvelope(env *envelope) ([]byte, error) {
	out, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal container")
	}
	return out, nil
}

func unmarshalEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "failed to parse container")
	}
	if env.Version != 1 {
		return nil, errors.Errorf("unsupported container version: %d", env.Version)
	}
	return &env, nil
}
