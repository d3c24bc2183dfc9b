package verification

import (
	"time"
)

// State is the outcome of reconciling a certificate between the ledger and
// the local registry.
type State string

const (
	// StateAuthentic means the ledger anchors the fingerprint and neither
	// side has revoked the certificate
	StateAuthentic State = "authentic"
	// StateRevoked means either the ledger or the registry marks the
	// certificate as revoked
	StateRevoked State = "revoked"
	// StateExpired means the certificate is anchored but past its expiry
	StateExpired State = "expired"
	// StateNotFound means the ledger has no entry for the fingerprint
	StateNotFound State = "not_found"
	// StateIndeterminate means the ledger could not be consulted; no
	// positive or negative statement about the certificate is possible
	StateIndeterminate State = "indeterminate"
)

// Verdict is the full reconciliation result for a single fingerprint.
type Verdict struct {
	State         State      `json:"status" msgpack:"state"`
	Fingerprint   string     `json:"fingerprint" msgpack:"fingerprint"`
	CertID        string     `json:"cert_id,omitempty" msgpack:"cert_id"`
	IssuerAddress string     `json:"issuer_address,omitempty" msgpack:"issuer_address"`
	RecordedAt    *time.Time `json:"recorded_at,omitempty" msgpack:"recorded_at"`
	SubjectName   string     `json:"subject_name,omitempty" msgpack:"subject_name"`
	Course        string     `json:"course,omitempty" msgpack:"course"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" msgpack:"expires_at"`
	// Cause is only set for indeterminate verdicts and names the failure
	// that prevented reconciliation
	Cause string `json:"cause,omitempty" msgpack:"cause"`
}

// Conclusive reports whether the verdict makes a definite statement. An
// indeterminate verdict is not conclusive and must never be cached.
func (v Verdict) Conclusive() bool {
	return v.State != StateIndeterminate
}
