// Package mobileid implements the signing provider backed by the Mobile-ID
// REST service.
package mobileid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karlivory/SiGa/internal/gateway/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Endpoint         string
	RelyingPartyUUID string
	RelyingPartyName string
	Language         string
}

// Client talks to the Mobile-ID REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Language == "" {
		cfg.Language = "EST"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 35 * time.Second},
	}
}

type certificateRequest struct {
	RelyingPartyUUID       string `json:"relyingPartyUUID"`
	RelyingPartyName       string `json:"relyingPartyName"`
	PhoneNumber            string `json:"phoneNumber"`
	NationalIdentityNumber string `json:"nationalIdentityNumber"`
}

type certificateResponse struct {
	Result string `json:"result"`
	Cert   string `json:"cert"`
}

func (c *Client) Certificate(ctx context.Context, identity signing.SignerIdentity) ([]byte, error) {
	req := certificateRequest{
		RelyingPartyUUID:       c.cfg.RelyingPartyUUID,
		RelyingPartyName:       c.cfg.RelyingPartyName,
		PhoneNumber:            identity.PhoneNumber,
		NationalIdentityNumber: identity.PersonIdentifier,
	}

	var resp certificateResponse
	if err := c.post(ctx, "/certificate", req, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "OK" {
		return nil, errors.Errorf("certificate request failed: %s", resp.Result)
	}

	cert, err := base64.StdEncoding.DecodeString(resp.Cert)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode certificate")
	}
	return cert, nil
}

type signatureRequest struct {
	RelyingPartyUUID       string `json:"relyingPartyUUID"`
	RelyingPartyName       string `json:"relyingPartyName"`
	PhoneNumber            string `json:"phoneNumber"`
	NationalIdentityNumber string `json:"nationalIdentityNumber"`
	Hash                   string `json:"hash"`
	HashType               string `json:"hashType"`
	Language               string `json:"language"`
}

type signatureResponse struct {
	SessionID string `json:"sessionID"`
}

func (c *Client) Initiate(ctx context.Context, digest []byte, identity signing.SignerIdentity) (string, string, error) {
	req := signatureRequest{
		RelyingPartyUUID:       c.cfg.RelyingPartyUUID,
		RelyingPartyName:       c.cfg.RelyingPartyName,
		PhoneNumber:            identity.PhoneNumber,
		NationalIdentityNumber: identity.PersonIdentifier,
		Hash:                   base64.StdEncoding.EncodeToString(digest),
		HashType:               "SHA256",
		Language:               c.cfg.Language,
	}

	var resp signatureResponse
	if err := c.post(ctx, "/signature", req, &resp); err != nil {
		return "", "", err
	}
	if resp.SessionID == "" {
		return "", "", errors.New("signature request returned no session id")
	}
	return resp.SessionID, VerificationCode(digest), nil
}

type sessionStatusResponse struct {
	State     string `json:"state"`
	Result    string `json:"result"`
	Signature struct {
		Value string `json:"value"`
	} `json:"signature"`
}

func (c *Client) Poll(ctx context.Context, transactionRef string) (signing.PollResult, error) {
	url := fmt.Sprintf("%s/signature/session/%s?timeoutMs=1000", c.cfg.Endpoint, transactionRef)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return signing.PollResult{}, errors.Wrap(err, "failed to build session status request")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return signing.PollResult{}, errors.Wrap(err, "session status request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return signing.PollResult{}, errors.Errorf("session status request returned %d", httpResp.StatusCode)
	}

	var resp sessionStatusResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return signing.PollResult{}, errors.Wrap(err, "failed to decode session status response")
	}

	if resp.State == "RUNNING" {
		return signing.PollResult{Status: signing.PollPending}, nil
	}

	if resp.Result == "OK" {
		value, err := base64.StdEncoding.DecodeString(resp.Signature.Value)
		if err != nil {
			return signing.PollResult{}, errors.Wrap(err, "failed to decode signature value")
		}
		return signing.PollResult{Status: signing.PollComplete, Signature: value}, nil
	}

	log.Debug().Str("result", resp.Result).Str("session_id", transactionRef).Msg("Mobile-ID signing failed")
	return signing.PollResult{Status: signing.PollFailed, Reason: failureReason(resp.Result)}, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return errors.Errorf("request to %s returned %d", path, httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", path)
	}
	return nil
}

// failureReason maps provider result codes onto the status vocabulary
// surfaced to API clients.
func failureReason(result string) string {
	switch result {
	case "TIMEOUT":
		return signing.TransactionExpired
	case "USER_CANCELLED":
		return "USER_CANCEL"
	case "NOT_MID_CLIENT":
		return "NOT_MID_CLIENT"
	case "PHONE_ABSENT":
		return "PHONE_ABSENT"
	case "SIM_ERROR", "DELIVERY_ERROR":
		return "SENDING_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// VerificationCode derives the 4-digit code displayed on the user's phone:
// the 6 leftmost bits of the first digest byte concatenated with the 7
// rightmost bits of the last byte.
func VerificationCode(digest []byte) string {
	if len(digest) == 0 {
		return "0000"
	}
	code := (int(digest[0])>>2)<<7 | int(digest[len(digest)-1])&0x7f
	return fmt.Sprintf("%04d", code)
}
