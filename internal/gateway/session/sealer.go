package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	sealerSaltSize  = 16
	sealerNonceSize = 12
	sealerKeySize   = 32
)

var sealerInfo = []byte("session-snapshot-v1")

// Sealer encrypts session snapshots before they leave the process. Each
// snapshot gets a fresh salt, the AES-256-GCM key is derived from the
// configured secret with HKDF-SHA256, and the redis key is bound in as AAD
// so a snapshot cannot be replayed under another session id.
//
// Output format: Salt (16 bytes) || Nonce (12 bytes) || Ciphertext (with tag)
type Sealer struct {
	secret []byte
}

func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealer secret is empty")
	}
	return &Sealer{secret: secret}, nil
}

func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	salt := make([]byte, sealerSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, sealerNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, aad)

	sealed := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = append(sealed, ciphertext...)

	return sealed, nil
}

func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	if len(sealed) < sealerSaltSize+sealerNonceSize {
		return nil, errors.New("sealed snapshot too short")
	}

	salt := sealed[:sealerSaltSize]
	nonce := sealed[sealerSaltSize : sealerSaltSize+sealerNonceSize]
	ciphertext := sealed[sealerSaltSize+sealerNonceSize:]

	gcm, err := s.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt snapshot")
	}

	return plaintext, nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	kdf := hkdf.New(sha256.New, s.secret, salt, sealerInfo)

	key := make([]byte, sealerKeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, errors.Wrap(err, "failed to derive snapshot key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aes cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gcm")
	}
	return gcm, nil
}
