package model

import (
	"time"
)

// Certificate is the registry row for an issued certificate. CertID,
// Fingerprint, LedgerTxRef and IssuerID are immutable once the row is
// created; Revoked only ever moves from false to true. Rows are created
// exactly once by the issuance orchestrator after a successful ledger write
// and are never physically deleted in normal operation.
type Certificate struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	// CertID is the globally unique certificate identifier.
	CertID string `gorm:"uniqueIndex;size:64" json:"cert_id"`
	// Fingerprint is the hex content digest anchored on the ledger.
	Fingerprint string `gorm:"uniqueIndex;size:64" json:"fingerprint"`
	// LedgerTxRef is the opaque transaction reference from the ledger write.
	LedgerTxRef string `json:"ledger_tx_ref"`
	// BlockNumber is the ledger block the anchor landed in, when known.
	BlockNumber uint64 `json:"block_number,omitempty"`
	// IssuerID references the principal that issued the certificate.
	IssuerID string `gorm:"index;size:255" json:"issuer_id"`

	SubjectName string     `json:"subject_name,omitempty"`
	Course      string     `json:"course,omitempty"`
	Revoked     bool       `gorm:"index" json:"revoked"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	// QRPayload is the rendered QR image for the public verification link.
	QRPayload []byte `json:"-"`
}

// Expired reports whether the certificate's expiry lies before now.
func (c Certificate) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// CertificateFilter narrows certificate counts and listings.
type CertificateFilter struct {
	IssuerID     string
	Revoked      *bool
	CreatedAfter *time.Time
}

// CertificateStore abstracts the registry's certificate table.
type CertificateStore interface {
	// Create persists a new certificate row
	Create(cert *Certificate) error
	// ByCertID returns the row for certID, or (nil, nil) if there is none
	ByCertID(certID string) (*Certificate, error)
	// ByFingerprint returns the row for a content fingerprint, or (nil, nil)
	ByFingerprint(fingerprint string) (*Certificate, error)
	// ForIssuer lists all certificates issued by issuerID, newest first
	ForIssuer(issuerID string) ([]Certificate, error)
	// All lists every certificate, newest first
	All() ([]Certificate, error)
	// MarkRevoked sets revoked on certID; revoking an already revoked
	// certificate is a no-op success
	MarkRevoked(certID string) error
	// Count returns the number of rows matching the filter
	Count(filter CertificateFilter) (int64, error)
}
