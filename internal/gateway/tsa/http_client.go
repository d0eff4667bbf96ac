package tsa

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPClient requests RFC 3161 style timestamp tokens over HTTP POST.
type HTTPClient struct {
	endpoint string
	http     *http.Client
}

func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) RequestArchiveTimestamp(ctx context.Context, signature []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(signature))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build timestamp request")
	}
	req.Header.Set("Content-Type", "application/timestamp-query")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "timestamp request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("timestamp request returned %d", resp.StatusCode)
	}

	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read timestamp response")
	}
	if len(token) == 0 {
		return nil, errors.New("timestamp response was empty")
	}
	return token, nil
}
