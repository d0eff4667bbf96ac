package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
)

// SignatureResponse is one embedded signature as returned by the list
// endpoint. ID is the generated signature id when known to this session,
// otherwise the container-internal id.
type SignatureResponse struct {
	ID               *string         `json:"id"`
	SignatureProfile *string         `json:"signatureProfile"`
	SignerInfo       string          `json:"signerInfo,omitempty"`
	SigningTime      strfmt.DateTime `json:"signingTime,omitempty"`
}

func (r *SignatureResponse) Validate(formats strfmt.Registry) error {
	if r.ID == nil {
		return errors.Required("id", "body", nil)
	}
	if r.SignatureProfile == nil {
		return errors.Required("signatureProfile", "body", nil)
	}
	return nil
}

// GetSignaturesResponse lists the container's signatures.
type GetSignaturesResponse struct {
	Signatures []*SignatureResponse `json:"signatures"`
}

func (r *GetSignaturesResponse) Validate(formats strfmt.Registry) error {
	for _, s := range r.Signatures {
		if s == nil {
			return errors.Required("signatures", "body", nil)
		}
		if err := s.Validate(formats); err != nil {
			return err
		}
	}
	return nil
}

// PostRemoteSigningInitPayload starts a detached-certificate signing flow.
type PostRemoteSigningInitPayload struct {
	// Base64 encoded DER signing certificate.
	SigningCertificate *string `json:"signingCertificate"`
	SignatureProfile   *string `json:"signatureProfile"`
}

func (p *PostRemoteSigningInitPayload) Validate(formats strfmt.Registry) error {
	if p.SigningCertificate == nil || *p.SigningCertificate == "" {
		return errors.Required("signingCertificate", "body", nil)
	}
	if p.SignatureProfile == nil || *p.SignatureProfile == "" {
		return errors.Required("signatureProfile", "body", nil)
	}
	return nil
}

// PostRemoteSigningInitResponse returns the digest for external signing.
type PostRemoteSigningInitResponse struct {
	GeneratedSignatureID *string `json:"generatedSignatureId"`
	// Base64 encoded digest to be signed.
	DataToSign      *string `json:"dataToSign"`
	DigestAlgorithm string  `json:"digestAlgorithm,omitempty"`
}

func (r *PostRemoteSigningInitResponse) Validate(formats strfmt.Registry) error {
	if r.GeneratedSignatureID == nil {
		return errors.Required("generatedSignatureId", "body", nil)
	}
	if r.DataToSign == nil {
		return errors.Required("dataToSign", "body", nil)
	}
	return nil
}

// PutRemoteSigningFinishPayload delivers the externally produced signature
// value.
type PutRemoteSigningFinishPayload struct {
	// Base64 encoded signature value.
	SignatureValue *string `json:"signatureValue"`
}

func (p *PutRemoteSigningFinishPayload) Validate(formats strfmt.Registry) error {
	if p.SignatureValue == nil || *p.SignatureValue == "" {
		return errors.Required("signatureValue", "body", nil)
	}
	return nil
}

// PostMobileIDSigningPayload starts a mobile-id signing flow.
type PostMobileIDSigningPayload struct {
	PersonIdentifier *string `json:"personIdentifier"`
	PhoneNo          *string `json:"phoneNo"`
	SignatureProfile *string `json:"signatureProfile"`
	Language         string  `json:"language,omitempty"`
	MessageToDisplay string  `json:"messageToDisplay,omitempty"`
}

func (p *PostMobileIDSigningPayload) Validate(formats strfmt.Registry) error {
	if p.PersonIdentifier == nil || *p.PersonIdentifier == "" {
		return errors.Required("personIdentifier", "body", nil)
	}
	if p.PhoneNo == nil || *p.PhoneNo == "" {
		return errors.Required("phoneNo", "body", nil)
	}
	if p.SignatureProfile == nil || *p.SignatureProfile == "" {
		return errors.Required("signatureProfile", "body", nil)
	}
	return nil
}

// PostSmartIDSigningPayload starts a smart-id signing flow.
type PostSmartIDSigningPayload struct {
	PersonIdentifier *string `json:"personIdentifier"`
	Country          string  `json:"country,omitempty"`
	SignatureProfile *string `json:"signatureProfile"`
}

func (p *PostSmartIDSigningPayload) Validate(formats strfmt.Registry) error {
	if p.PersonIdentifier == nil || *p.PersonIdentifier == "" {
		return errors.Required("personIdentifier", "body", nil)
	}
	if p.SignatureProfile == nil || *p.SignatureProfile == "" {
		return errors.Required("signatureProfile", "body", nil)
	}
	return nil
}

// PostProviderSigningResponse returns the flow id and the verification code
// displayed to the user.
type PostProviderSigningResponse struct {
	GeneratedSignatureID *string `json:"generatedSignatureId"`
	ChallengeID          string  `json:"challengeId,omitempty"`
}

func (r *PostProviderSigningResponse) Validate(formats strfmt.Registry) error {
	if r.GeneratedSignatureID == nil {
		return errors.Required("generatedSignatureId", "body", nil)
	}
	return nil
}

// GetSigningStatusResponse reports one poll of an asynchronous signing flow.
type GetSigningStatusResponse struct {
	Status *string `json:"status"`
}

func (r *GetSigningStatusResponse) Validate(formats strfmt.Registry) error {
	if r.Status == nil {
		return errors.Required("status", "body", nil)
	}
	return nil
}
