// Package smartid implements the signing provider backed by the Smart-ID
// REST service.
package smartid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karlivory/SiGa/internal/gateway/providers/mobileid"
	"github.com/karlivory/SiGa/internal/gateway/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Endpoint         string
	RelyingPartyUUID string
	RelyingPartyName string
	DefaultCountry   string
}

// Client talks to the Smart-ID REST API. Certificate selection is itself an
// asynchronous session; Certificate blocks on it using the API's long-poll
// support, bounded by ctx.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "EE"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 35 * time.Second},
	}
}

type requestBase struct {
	RelyingPartyUUID string `json:"relyingPartyUUID"`
	RelyingPartyName string `json:"relyingPartyName"`
}

type certificateChoiceRequest struct {
	requestBase
	CertificateLevel string `json:"certificateLevel"`
}

type sessionRef struct {
	SessionID string `json:"sessionID"`
}

type sessionStatus struct {
	State  string `json:"state"`
	Result struct {
		EndResult string `json:"endResult"`
	} `json:"result"`
	Cert struct {
		Value string `json:"value"`
	} `json:"cert"`
	Signature struct {
		Value string `json:"value"`
	} `json:"signature"`
}

func (c *Client) Certificate(ctx context.Context, identity signing.SignerIdentity) ([]byte, error) {
	req := certificateChoiceRequest{
		requestBase:      c.base(),
		CertificateLevel: "QUALIFIED",
	}

	var ref sessionRef
	path := fmt.Sprintf("/certificatechoice/etsi/%s", c.semanticsIdentifier(identity))
	if err := c.post(ctx, path, req, &ref); err != nil {
		return nil, err
	}

	for {
		status, err := c.sessionStatus(ctx, ref.SessionID)
		if err != nil {
			return nil, err
		}
		if status.State == "RUNNING" {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if status.Result.EndResult != "OK" {
			return nil, errors.Errorf("certificate choice failed: %s", status.Result.EndResult)
		}
		cert, err := base64.StdEncoding.DecodeString(status.Cert.Value)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode certificate")
		}
		return cert, nil
	}
}

type signatureRequest struct {
	requestBase
	Hash     string `json:"hash"`
	HashType string `json:"hashType"`
}

func (c *Client) Initiate(ctx context.Context, digest []byte, identity signing.SignerIdentity) (string, string, error) {
	req := signatureRequest{
		requestBase: c.base(),
		Hash:        base64.StdEncoding.EncodeToString(digest),
		HashType:    "SHA256",
	}

	var ref sessionRef
	path := fmt.Sprintf("/signature/etsi/%s", c.semanticsIdentifier(identity))
	if err := c.post(ctx, path, req, &ref); err != nil {
		return "", "", err
	}
	if ref.SessionID == "" {
		return "", "", errors.New("signature request returned no session id")
	}
	return ref.SessionID, mobileid.VerificationCode(digest), nil
}

func (c *Client) Poll(ctx context.Context, transactionRef string) (signing.PollResult, error) {
	status, err := c.sessionStatus(ctx, transactionRef)
	if err != nil {
		return signing.PollResult{}, err
	}

	if status.State == "RUNNING" {
		return signing.PollResult{Status: signing.PollPending}, nil
	}

	if status.Result.EndResult == "OK" {
		value, err := base64.StdEncoding.DecodeString(status.Signature.Value)
		if err != nil {
			return signing.PollResult{}, errors.Wrap(err, "failed to decode signature value")
		}
		return signing.PollResult{Status: signing.PollComplete, Signature: value}, nil
	}

	log.Debug().Str("end_result", status.Result.EndResult).Str("session_id", transactionRef).Msg("Smart-ID signing failed")
	return signing.PollResult{Status: signing.PollFailed, Reason: failureReason(status.Result.EndResult)}, nil
}

func (c *Client) sessionStatus(ctx context.Context, sessionID string) (*sessionStatus, error) {
	url := fmt.Sprintf("%s/session/%s?timeoutMs=1000", c.cfg.Endpoint, sessionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build session status request")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "session status request failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("session status request returned %d", httpResp.StatusCode)
	}

	var status sessionStatus
	if err := json.NewDecoder(httpResp.Body).Decode(&status); err != nil {
		return nil, errors.Wrap(err, "failed to decode session status response")
	}
	return &status, nil
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

func (c *Client) base() requestBase {
	return requestBase{
		RelyingPartyUUID: c.cfg.RelyingPartyUUID,
		RelyingPartyName: c.cfg.RelyingPartyName,
	}
}

func (c *Client) semanticsIdentifier(identity signing.SignerIdentity) string {
	country := identity.Country
	if country == "" {
		country = c.cfg.DefaultCountry
	}
	return fmt.Sprintf("PNO%s-%s", country, identity.PersonIdentifier)
}

func failureReason(endResult string) string {
	switch endResult {
	case "TIMEOUT":
		return signing.TransactionExpired
	case "USER_REFUSED":
		return "USER_CANCEL"
	case "DOCUMENT_UNUSABLE":
		return "DOCUMENT_UNUSABLE"
	case "WRONG_VC":
		return "USER_SELECTED_WRONG_VC"
	default:
		return "INTERNAL_ERROR"
	}
}
