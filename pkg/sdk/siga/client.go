// Package siga is a Go client for the SiGa gateway REST API. It wraps the
// container, signing and augmentation endpoints and handles the base64
// framing of binary payloads.
package siga

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one SiGa gateway instance on behalf of one service. The
// token is the bearer JWT issued for the service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Config struct {
	BaseURL string
	Token   string
	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
	}
}

// DataFile is one file inside a container.
type DataFile struct {
	Name     string
	Content  []byte
	MimeType string
}

// Signature is one embedded signature as reported by the gateway.
type Signature struct {
	ID          string
	Profile     string
	SignerInfo  string
	SigningTime time.Time
}

// RemoteSigningInit carries the digest to be signed externally.
type RemoteSigningInit struct {
	GeneratedSignatureID string
	DataToSign           []byte
	DigestAlgorithm      string
}

// ProviderSigningInit carries the flow id and the verification code shown
// to the user.
type ProviderSigningInit struct {
	GeneratedSignatureID string
	ChallengeID          string
}

// Error is the gateway's error payload. Code is stable and machine
// readable.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("siga: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

type wireDataFile struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
	MimeType    string `json:"mimeType,omitempty"`
}

func toWireDataFiles(files []DataFile) []wireDataFile {
	out := make([]wireDataFile, 0, len(files))
	for _, f := range files {
		out = append(out, wireDataFile{
			FileName:    f.Name,
			FileContent: base64.StdEncoding.EncodeToString(f.Content),
			MimeType:    f.MimeType,
		})
	}
	return out
}

// CreateContainer opens a new session around a container built from the
// given data files and returns the container id.
func (c *Client) CreateContainer(ctx context.Context, containerName string, files []DataFile) (string, error) {
	req := struct {
		ContainerName string         `json:"containerName,omitempty"`
		DataFiles     []wireDataFile `json:"dataFiles"`
	}{containerName, toWireDataFiles(files)}

	var resp struct {
		ContainerID string `json:"containerId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/containers", req, &resp); err != nil {
		return "", err
	}
	return resp.ContainerID, nil
}

// UploadContainer opens a new session around an existing container.
func (c *Client) UploadContainer(ctx context.Context, containerName string, container []byte) (string, error) {
	req := struct {
		ContainerName string `json:"containerName,omitempty"`
		Container     string `json:"container"`
	}{containerName, base64.StdEncoding.EncodeToString(container)}

	var resp struct {
		ContainerID string `json:"containerId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/containers/upload", req, &resp); err != nil {
		return "", err
	}
	return resp.ContainerID, nil
}

// GetContainer returns the current container name and bytes.
func (c *Client) GetContainer(ctx context.Context, containerID string) (string, []byte, error) {
	var resp struct {
		ContainerName string `json:"containerName"`
		Container     string `json:"container"`
	}
	if err := c.do(ctx, http.MethodGet, c.containerPath(containerID), nil, &resp); err != nil {
		return "", nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Container)
	if err != nil {
		return "", nil, fmt.Errorf("siga: invalid container encoding: %w", err)
	}
	return resp.ContainerName, raw, nil
}

// CloseContainer ends the session and releases its resources.
func (c *Client) CloseContainer(ctx context.Context, containerID string) error {
	return c.do(ctx, http.MethodDelete, c.containerPath(containerID), nil, nil)
}

// DataFiles lists the container's data files.
func (c *Client) DataFiles(ctx context.Context, containerID string) ([]DataFile, error) {
	var resp struct {
		DataFiles []wireDataFile `json:"dataFiles"`
	}
	if err := c.do(ctx, http.MethodGet, c.containerPath(containerID)+"/datafiles", nil, &resp); err != nil {
		return nil, err
	}

	files := make([]DataFile, 0, len(resp.DataFiles))
	for _, f := range resp.DataFiles {
		content, err := base64.StdEncoding.DecodeString(f.FileContent)
		if err != nil {
			return nil, fmt.Errorf("siga: invalid data file encoding: %w", err)
		}
		files = append(files, DataFile{Name: f.FileName, Content: content, MimeType: f.MimeType})
	}
	return files, nil
}

// AddDataFiles appends data files to an unsigned container.
func (c *Client) AddDataFiles(ctx context.Context, containerID string, files []DataFile) error {
	req := struct {
		DataFiles []wireDataFile `json:"dataFiles"`
	}{toWireDataFiles(files)}
	return c.do(ctx, http.MethodPost, c.containerPath(containerID)+"/datafiles", req, nil)
}

// RemoveDataFile removes one data file from an unsigned container.
func (c *Client) RemoveDataFile(ctx context.Context, containerID, fileName string) error {
	path := c.containerPath(containerID) + "/datafiles/" + url.PathEscape(fileName)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Signatures lists the container's signatures.
func (c *Client) Signatures(ctx context.Context, containerID string) ([]Signature, error) {
	var resp struct {
		Signatures []struct {
			ID               string    `json:"id"`
			SignatureProfile string    `json:"signatureProfile"`
			SignerInfo       string    `json:"signerInfo"`
			SigningTime      time.Time `json:"signingTime"`
		} `json:"signatures"`
	}
	if err := c.do(ctx, http.MethodGet, c.containerPath(containerID)+"/signatures", nil, &resp); err != nil {
		return nil, err
	}

	sigs := make([]Signature, 0, len(resp.Signatures))
	for _, s := range resp.Signatures {
		sigs = append(sigs, Signature{
			ID:          s.ID,
			Profile:     s.SignatureProfile,
			SignerInfo:  s.SignerInfo,
			SigningTime: s.SigningTime,
		})
	}
	return sigs, nil
}

// StartRemoteSigning starts a detached-certificate signing flow. The
// certificate is the signer's DER encoded certificate.
func (c *Client) StartRemoteSigning(ctx context.Context, containerID string, certificate []byte, profile string) (*RemoteSigningInit, error) {
	req := struct {
		SigningCertificate string `json:"signingCertificate"`
		SignatureProfile   string `json:"signatureProfile"`
	}{base64.StdEncoding.EncodeToString(certificate), profile}

	var resp struct {
		GeneratedSignatureID string `json:"generatedSignatureId"`
		DataToSign           string `json:"dataToSign"`
		DigestAlgorithm      string `json:"digestAlgorithm"`
	}
	if err := c.do(ctx, http.MethodPost, c.containerPath(containerID)+"/remotesigning", req, &resp); err != nil {
		return nil, err
	}

	digest, err := base64.StdEncoding.DecodeString(resp.DataToSign)
	if err != nil {
		return nil, fmt.Errorf("siga: invalid dataToSign encoding: %w", err)
	}
	return &RemoteSigningInit{
		GeneratedSignatureID: resp.GeneratedSignatureID,
		DataToSign:           digest,
		DigestAlgorithm:      resp.DigestAlgorithm,
	}, nil
}

// FinishRemoteSigning delivers the externally produced signature value.
func (c *Client) FinishRemoteSigning(ctx context.Context, containerID, signatureID string, signatureValue []byte) error {
	req := struct {
		SignatureValue string `json:"signatureValue"`
	}{base64.StdEncoding.EncodeToString(signatureValue)}
	path := c.containerPath(containerID) + "/remotesigning/" + url.PathEscape(signatureID)
	return c.do(ctx, http.MethodPut, path, req, nil)
}

// StartMobileIDSigning starts a mobile-id signing flow.
func (c *Client) StartMobileIDSigning(ctx context.Context, containerID, personIdentifier, phoneNo, profile string) (*ProviderSigningInit, error) {
	req := struct {
		PersonIdentifier string `json:"personIdentifier"`
		PhoneNo          string `json:"phoneNo"`
		SignatureProfile string `json:"signatureProfile"`
	}{personIdentifier, phoneNo, profile}
	return c.startProviderSigning(ctx, c.containerPath(containerID)+"/mobileidsigning", req)
}

// MobileIDSigningStatus polls one mobile-id signing flow.
func (c *Client) MobileIDSigningStatus(ctx context.Context, containerID, signatureID string) (string, error) {
	path := c.containerPath(containerID) + "/mobileidsigning/" + url.PathEscape(signatureID) + "/status"
	return c.signingStatus(ctx, path)
}

// StartSmartIDSigning starts a smart-id signing flow.
func (c *Client) StartSmartIDSigning(ctx context.Context, containerID, personIdentifier, country, profile string) (*ProviderSigningInit, error) {
	req := struct {
		PersonIdentifier string `json:"personIdentifier"`
		Country          string `json:"country,omitempty"`
		SignatureProfile string `json:"signatureProfile"`
	}{personIdentifier, country, profile}
	return c.startProviderSigning(ctx, c.containerPath(containerID)+"/smartidsigning", req)
}

// SmartIDSigningStatus polls one smart-id signing flow.
func (c *Client) SmartIDSigningStatus(ctx context.Context, containerID, signatureID string) (string, error) {
	path := c.containerPath(containerID) + "/smartidsigning/" + url.PathEscape(signatureID) + "/status"
	return c.signingStatus(ctx, path)
}

// Augment upgrades the container's signatures with archive timestamps.
func (c *Client) Augment(ctx context.Context, containerID string) error {
	return c.do(ctx, http.MethodPut, c.containerPath(containerID)+"/augmentation", nil, nil)
}

func (c *Client) startProviderSigning(ctx context.Context, path string, req interface{}) (*ProviderSigningInit, error) {
	var resp struct {
		GeneratedSignatureID string `json:"generatedSignatureId"`
		ChallengeID          string `json:"challengeId"`
	}
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &ProviderSigningInit{
		GeneratedSignatureID: resp.GeneratedSignatureID,
		ChallengeID:          resp.ChallengeID,
	}, nil
}

func (c *Client) signingStatus(ctx context.Context, path string) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) containerPath(containerID string) string {
	return "/api/v1/containers/" + url.PathEscape(containerID)
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("siga: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("siga: failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload struct {
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ErrorCode == "" {
		return &Error{
			StatusCode: resp.StatusCode,
			Code:       "UNKNOWN",
			Message:    strings.TrimSpace(string(data)),
		}
	}
	return &Error{
		StatusCode: resp.StatusCode,
		Code:       payload.ErrorCode,
		Message:    payload.ErrorMessage,
	}
}
