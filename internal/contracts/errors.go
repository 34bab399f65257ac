package contracts

import "errors"

var (
	// ErrMissingNumber is returned when the contract number is empty.
	ErrMissingNumber = errors.New("contract number is required")

	// ErrMissingClientName is returned when the client name is empty.
	ErrMissingClientName = errors.New("client name is required")

	// ErrInvalidSignerType is returned for signer types outside user/client/rubric.
	ErrInvalidSignerType = errors.New("invalid signer type")

	// ErrInvalidPosition is returned when a placement rectangle is malformed.
	ErrInvalidPosition = errors.New("signature position requires a 1-based page number")

	// ErrMissingSignerName is returned when a captured signature has no name.
	ErrMissingSignerName = errors.New("signer name is required")

	// ErrMissingSignatureData is returned when the signature image payload is empty.
	ErrMissingSignatureData = errors.New("signature data is required")

	// ErrContractNotFound is returned when a contract is not found.
	ErrContractNotFound = errors.New("contract not found")

	// ErrAlreadySigned is returned when capturing against a signed contract.
	ErrAlreadySigned = errors.New("contract already signed")

	// ErrContractCancelled is returned when capturing against a cancelled contract.
	ErrContractCancelled = errors.New("contract cancelled")
)
