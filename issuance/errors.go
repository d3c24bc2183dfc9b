package issuance

import (
	"fmt"
)

// DuplicateContentError signals that the content to issue is already anchored
// under an existing certificate.
type DuplicateContentError struct {
	CertID string
}

// Error implements the error interface
func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("content already certified as %s", e.CertID)
}

// IdentifierCollisionError signals that no free certificate identifier could
// be generated within the configured number of attempts.
type IdentifierCollisionError struct {
	Attempts int
}

// Error implements the error interface
func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("could not generate a free certificate id in %d attempts", e.Attempts)
}

// PartialIssuanceError signals that the ledger anchored the certificate but
// the registry row could not be persisted. The ledger write must not be
// retried; the transaction reference is carried for manual reconciliation.
type PartialIssuanceError struct {
	CertID         string
	TransactionRef string
	Err            error
}

// Error implements the error interface
func (e *PartialIssuanceError) Error() string {
	return fmt.Sprintf(
		"certificate %s anchored in ledger (tx %s) but registry persist failed: %v",
		e.CertID, e.TransactionRef, e.Err,
	)
}

// Unwrap returns the underlying registry error
func (e *PartialIssuanceError) Unwrap() error {
	return e.Err
}

// NotAuthorizedError signals that the requester may not operate on the
// certificate.
type NotAuthorizedError string

// Error implements the error interface
func (e NotAuthorizedError) Error() string {
	return string(e)
}
