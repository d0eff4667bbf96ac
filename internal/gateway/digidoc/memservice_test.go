package digidoc

import (
	"context"
	"testing"

	"github.com/karlivory/SiGa/internal/gateway/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() []DataFile {
	return []DataFile{
		{Name: "doc.txt", Content: []byte("hello"), MimeType: "text/plain"},
		{Name: "doc2.txt", Content: []byte("world")},
	}
}

func TestBuildAndOpen(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)

	info, err := svc.Open(ctx, raw)
	require.NoError(t, err)
	require.Len(t, info.DataFiles, 2)
	assert.Equal(t, "doc.txt", info.DataFiles[0].Name)
	assert.Equal(t, []byte("hello"), info.DataFiles[0].Content)
	assert.Empty(t, info.Signatures)
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	svc := NewMemService()

	_, err := svc.Build(context.Background(), []DataFile{
		{Name: "doc.txt", Content: []byte("a")},
		{Name: "doc.txt", Content: []byte("b")},
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindDuplicateDataFile))
	assert.Contains(t, err.Error(), "Duplicate data files not allowed: doc.txt")
}

func TestOpenRejectsMalformedBytes(t *testing.T) {
	svc := NewMemService()

	_, err := svc.Open(context.Background(), []byte("not a container"))
	assert.Error(t, err)
}

func TestAddDataFile(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)

	raw, err = svc.AddDataFile(ctx, raw, DataFile{Name: "third.txt", Content: []byte("x")})
	require.NoError(t, err)

	_, err = svc.AddDataFile(ctx, raw, DataFile{Name: "doc.txt", Content: []byte("x")})
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindDuplicateDataFile))

	info, err := svc.Open(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, info.DataFiles, 3)
}

func TestRemoveDataFile(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)

	raw, err = svc.RemoveDataFile(ctx, raw, "doc.txt")
	require.NoError(t, err)

	_, err = svc.RemoveDataFile(ctx, raw, "missing.txt")
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
	assert.Contains(t, err.Error(), "Data file named missing.txt not found")

	info, err := svc.Open(ctx, raw)
	require.NoError(t, err)
	require.Len(t, info.DataFiles, 1)
	assert.Equal(t, "doc2.txt", info.DataFiles[0].Name)
}

func TestSigningRoundTrip(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()
	cert := []byte("signer-cert")

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)

	digest, err := svc.DataToSign(ctx, raw, cert, ProfileLT)
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	// The digest is bound to the signer certificate and profile.
	other, err := svc.DataToSign(ctx, raw, []byte("other-cert"), ProfileLT)
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)

	raw, sig, err := svc.FinalizeSignature(ctx, raw, digest, []byte("signature-value"), cert, ProfileLT)
	require.NoError(t, err)
	assert.Equal(t, "S0", sig.ID)
	assert.Equal(t, ProfileLT, sig.Profile)

	info, err := svc.Open(ctx, raw)
	require.NoError(t, err)
	require.Len(t, info.Signatures, 1)
	assert.Equal(t, []byte("signature-value"), info.Signatures[0].Value)
}

func TestFinalizeSignatureRejectsWrongDigest(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)

	_, _, err = svc.FinalizeSignature(ctx, raw, []byte("bogus digest"), []byte("value"), []byte("cert"), ProfileLT)
	assert.Error(t, err)

	digest, err := svc.DataToSign(ctx, raw, []byte("cert"), ProfileLT)
	require.NoError(t, err)
	_, _, err = svc.FinalizeSignature(ctx, raw, digest, nil, []byte("cert"), ProfileLT)
	assert.Error(t, err)
}

func TestAppendArchiveTimestamp(t *testing.T) {
	svc := NewMemService()
	ctx := context.Background()
	cert := []byte("cert")

	raw, err := svc.Build(ctx, testFiles())
	require.NoError(t, err)
	digest, err := svc.DataToSign(ctx, raw, cert, ProfileLT)
	require.NoError(t, err)
	raw, sig, err := svc.FinalizeSignature(ctx, raw, digest, []byte("value"), cert, ProfileLT)
	require.NoError(t, err)

	raw, err = svc.AppendArchiveTimestamp(ctx, raw, sig.ID, []byte("token-1"))
	require.NoError(t, err)

	info, err := svc.Open(ctx, raw)
	require.NoError(t, err)
	require.Len(t, info.Signatures, 1)
	assert.Equal(t, ProfileLTA, info.Signatures[0].Profile)
	require.Len(t, info.Signatures[0].ArchiveTimestamps, 1)

	// A second attachment accumulates, it does not replace.
	raw, err = svc.AppendArchiveTimestamp(ctx, raw, sig.ID, []byte("token-2"))
	require.NoError(t, err)
	info, err = svc.Open(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, info.Signatures[0].ArchiveTimestamps, 2)

	_, err = svc.AppendArchiveTimestamp(ctx, raw, "S99", []byte("token"))
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}
