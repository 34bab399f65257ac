package contracts

import (
	"strings"
	"time"
)

// SignerType is the role a signature plays on a contract.
type SignerType string

const (
	// SignerUser is the internal account holder signing the contract.
	SignerUser SignerType = "user"
	// SignerClient is the counterparty.
	SignerClient SignerType = "client"
	// SignerRubric is an initials/stamp mark placed on intermediate pages.
	SignerRubric SignerType = "rubric"
)

// Contract lifecycle states.
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusSigned    = "signed"
	StatusCancelled = "cancelled"
)

// Contract is a digital contract sent out for e-signature.
type Contract struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	LeadID       string     `json:"lead_id,omitempty"`
	ClientName   string     `json:"client_name"`
	ClientEmail  string     `json:"client_email,omitempty"`
	ClientPhone  string     `json:"client_phone,omitempty"`
	Status       string     `json:"status"`
	SigningToken string     `json:"signing_token,omitempty"`
	PDFKey       string     `json:"pdf_key,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SignaturePosition is a page-anchored placement rectangle defined by the
// contract builder. Coordinates are document-relative; PageNumber is 1-based.
type SignaturePosition struct {
	ID         string     `json:"id"`
	ContractID string     `json:"contract_id"`
	SignerType SignerType `json:"signer_type"`
	PageNumber int        `json:"page_number"`
	X          float64    `json:"x_position"`
	Y          float64    `json:"y_position"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// CapturedSignature is a signature image captured during the signing flow.
// SignatureData is the encoded image payload; storage happens elsewhere.
type CapturedSignature struct {
	SignerType    SignerType `json:"signer_type"`
	Name          string     `json:"name"`
	SignatureData string     `json:"signature_data"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
}

// CreateContractRequest is the admin request body for creating a contract.
type CreateContractRequest struct {
	Number      string              `json:"number"`
	LeadID      string              `json:"lead_id"`
	ClientName  string              `json:"client_name"`
	ClientEmail string              `json:"client_email"`
	ClientPhone string              `json:"client_phone"`
	Positions   []SignaturePosition `json:"positions"`
}

// Validate validates the create contract request.
func (r *CreateContractRequest) Validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return ErrMissingNumber
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return ErrMissingClientName
	}
	for _, p := range r.Positions {
		if p.PageNumber < 1 {
			return ErrInvalidPosition
		}
		switch p.SignerType {
		case SignerUser, SignerClient, SignerRubric:
		default:
			return ErrInvalidSignerType
		}
	}
	return nil
}

// CaptureSignatureRequest is the public request body for recording a
// captured signature against a contract.
type CaptureSignatureRequest struct {
	SignerType    SignerType `json:"signer_type"`
	Name          string     `json:"name"`
	SignatureData string     `json:"signature_data"`
}

// Validate validates the capture request. Rubric marks are derived from the
// client signature by the frontend and are not captured directly.
func (r *CaptureSignatureRequest) Validate() error {
	if r.SignerType != SignerUser && r.SignerType != SignerClient {
		return ErrInvalidSignerType
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingSignerName
	}
	if strings.TrimSpace(r.SignatureData) == "" {
		return ErrMissingSignatureData
	}
	return nil
}
