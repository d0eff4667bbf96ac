// Package digidoc defines the contract the orchestration core consumes
// from a signature container library. The gateway never interprets container
// bytes itself; every structural operation goes through this interface.
package digidoc

import "context"

// Service is the container/signature library contract. Implementations must
// treat the raw byte slice as immutable and return fresh bytes on mutation,
// and must reject data file name collisions with a DuplicateDataFile error.
type Service interface {
	// Build assembles a new container from the given data files.
	Build(ctx context.Context, files []DataFile) ([]byte, error)

	// Open parses container bytes into a read view. It fails when the bytes
	// are not a well-formed container.
	Open(ctx context.Context, raw []byte) (*Info, error)

	// AddDataFile returns new container bytes with the file appended.
	AddDataFile(ctx context.Context, raw []byte, file DataFile) ([]byte, error)

	// RemoveDataFile returns new container bytes without the named file.
	RemoveDataFile(ctx context.Context, raw []byte, name string) ([]byte, error)

	// DataToSign computes the digest a signer must sign for the container's
	// current data files, bound to the signer certificate and profile.
	DataToSign(ctx context.Context, raw []byte, signerCert []byte, profile Profile) ([]byte, error)

	// FinalizeSignature validates that signatureValue is well formed for the
	// given digest and embeds it, returning the new container bytes and the
	// embedded signature.
	FinalizeSignature(ctx context.Context, raw []byte, digest []byte, signatureValue []byte, signerCert []byte, profile Profile) ([]byte, Signature, error)

	// SignatureBytes returns the serialized signature identified by id,
	// including any archive timestamps already attached to it.
	SignatureBytes(ctx context.Context, raw []byte, signatureID string) ([]byte, error)

	// AppendArchiveTimestamp attaches one more archive timestamp token to the
	// identified signature and returns the new container bytes.
	AppendArchiveTimestamp(ctx context.Context, raw []byte, signatureID string, token []byte) ([]byte, error)
}
