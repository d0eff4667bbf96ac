package tsa

import (
	"context"
	"crypto/sha256"
)

// MockService returns deterministic tokens without network traffic.
// Development and test only.
type MockService struct{}

func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) RequestArchiveTimestamp(ctx context.Context, signature []byte) ([]byte, error) {
	sum := sha256.Sum256(append([]byte("tsa-token:"), signature...))
	return sum[:], nil
}
