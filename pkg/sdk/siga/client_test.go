package siga

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "test-token"})
}

func TestCreateContainer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/containers", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req struct {
			ContainerName string `json:"containerName"`
			DataFiles     []struct {
				FileName    string `json:"fileName"`
				FileContent string `json:"fileContent"`
			} `json:"dataFiles"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "doc.asice", req.ContainerName)
		require.Len(t, req.DataFiles, 1)
		assert.Equal(t, "doc.txt", req.DataFiles[0].FileName)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), req.DataFiles[0].FileContent)

		json.NewEncoder(w).Encode(map[string]string{"containerId": "session-1"})
	})

	id, err := client.CreateContainer(context.Background(), "doc.asice", []DataFile{
		{Name: "doc.txt", Content: []byte("hello"), MimeType: "text/plain"},
	})
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestRemoteSigningRoundTrip(t *testing.T) {
	digest := []byte("digest-bytes")
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/containers/session-1/remotesigning":
			json.NewEncoder(w).Encode(map[string]string{
				"generatedSignatureId": "sig-1",
				"dataToSign":           base64.StdEncoding.EncodeToString(digest),
				"digestAlgorithm":      "SHA256",
			})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/containers/session-1/remotesigning/sig-1":
			var req struct {
				SignatureValue string `json:"signatureValue"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("value")), req.SignatureValue)
			json.NewEncoder(w).Encode(map[string]string{"result": "OK"})
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	init, err := client.StartRemoteSigning(ctx, "session-1", []byte("cert"), "LT")
	require.NoError(t, err)
	assert.Equal(t, "sig-1", init.GeneratedSignatureID)
	assert.Equal(t, digest, init.DataToSign)
	assert.Equal(t, "SHA256", init.DigestAlgorithm)

	require.NoError(t, client.FinishRemoteSigning(ctx, "session-1", "sig-1", []byte("value")))
}

func TestErrorPayloadDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "CONNECTION_LIMIT_EXCEPTION",
			"errorMessage": "Number of allowed sessions exceeded for service s1",
		})
	})

	_, err := client.CreateContainer(context.Background(), "", []DataFile{{Name: "f", Content: []byte("x")}})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "CONNECTION_LIMIT_EXCEPTION", apiErr.Code)
	assert.Contains(t, apiErr.Message, "Number of allowed sessions exceeded")
}

func TestNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	err := client.Augment(context.Background(), "session-1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "UNKNOWN", apiErr.Code)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestSigningStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/containers/session-1/mobileidsigning/sig-1/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "SIGNATURE"})
	})

	status, err := client.MobileIDSigningStatus(context.Background(), "session-1", "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "SIGNATURE", status)
}
