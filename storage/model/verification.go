package model

import (
	"time"
)

// VerificationEvent records one verification attempt and its verdict.
type VerificationEvent struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Fingerprint is the content digest that was verified.
	Fingerprint string `gorm:"index;size:64" json:"fingerprint"`
	// CertID is set when the ledger resolved the fingerprint to a certificate.
	CertID string `gorm:"index;size:64" json:"cert_id,omitempty"`
	// VerifierID identifies the requesting principal; empty for public lookups.
	VerifierID string `gorm:"index;size:255" json:"verifier_id,omitempty"`
	Verdict    string `json:"verdict"`
}

// VerificationLogStore is an append-only log of verification attempts.
type VerificationLogStore interface {
	// Append stores a new event
	Append(event *VerificationEvent) error
	// Recent returns the newest events, newest first
	Recent(limit int) ([]VerificationEvent, error)
	// ForVerifier returns the newest events of one verifier, newest first
	ForVerifier(verifierID string, limit int) ([]VerificationEvent, error)
}
