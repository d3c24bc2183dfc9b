// Package ledger defines the client boundary to the append-only certificate
// ledger. The ledger is authoritative for whether a fingerprint was ever
// anchored and for one copy of the revocation state; everything else about a
// certificate lives in the local registry.
package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Entry is the ledger's view of an anchored certificate, keyed by fingerprint.
// The fingerprint to identifier mapping is unique and immutable once recorded.
type Entry struct {
	Identifier    string    `json:"identifier"`
	IssuerAddress string    `json:"issuer_address"`
	RecordedAt    time.Time `json:"recorded_at"`
	Exists        bool      `json:"exists"`
	Revoked       bool      `json:"revoked"`
}

// Receipt is returned by ledger writes.
type Receipt struct {
	TransactionRef string `json:"transaction_ref"`
	BlockNumber    uint64 `json:"block_number"`
}

// Client is the RPC facade over the ledger.
//
// LookupByFingerprint is safe to retry. Record and Revoke are NOT: a timeout
// may hide a write that was accepted, so callers must re-query ledger state
// via LookupByFingerprint before retrying either of them.
type Client interface {
	// Record anchors (identifier, fingerprint) on the ledger.
	Record(ctx context.Context, identifier, fingerprint string) (*Receipt, error)
	// Revoke marks the identifier revoked on the ledger.
	Revoke(ctx context.Context, identifier string) (*Receipt, error)
	// LookupByFingerprint returns the ledger entry for a fingerprint. An
	// unanchored fingerprint yields an Entry with Exists == false, not an
	// error.
	LookupByFingerprint(ctx context.Context, fingerprint string) (*Entry, error)
}

// UnreachableError signals that the ledger could not be reached or did not
// answer within the deadline. It is transient; after a write the caller must
// re-query before retrying because the write may have landed anyway.
type UnreachableError struct {
	Err error
}

// Error implements the error interface
func (e *UnreachableError) Error() string {
	return "ledger unreachable: " + e.Err.Error()
}

// Unwrap returns the underlying cause
func (e *UnreachableError) Unwrap() error { return e.Err }

// Unreachable wraps err as an UnreachableError.
func Unreachable(err error) error {
	return &UnreachableError{Err: err}
}

// RejectedError signals that the ledger refused the operation permanently for
// this identifier/fingerprint.
type RejectedError string

// Error implements the error interface
func (e RejectedError) Error() string { return string(e) }

// DuplicateIdentifierError signals that the identifier is already recorded on
// the ledger.
type DuplicateIdentifierError string

// Error implements the error interface
func (e DuplicateIdentifierError) Error() string { return string(e) }

// NotFoundError signals that the ledger has no entry for the identifier.
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string { return string(e) }

// IsUnreachable reports whether err is (or wraps) an UnreachableError.
func IsUnreachable(err error) bool {
	var u *UnreachableError
	return errors.As(err, &u)
}

// IsRejected reports whether err is (or wraps) a RejectedError or a
// DuplicateIdentifierError.
func IsRejected(err error) bool {
	var r RejectedError
	var d DuplicateIdentifierError
	return errors.As(err, &r) || errors.As(err, &d)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var n NotFoundError
	return errors.As(err, &n)
}
