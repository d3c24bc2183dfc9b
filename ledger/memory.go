package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryClient is an in-process Client for development and tests. It mirrors
// the ledger's semantics: fingerprint keys, unique immutable identifiers and
// monotonic revocation.
type MemoryClient struct {
	mu            sync.Mutex
	byFingerprint map[string]*Entry
	byIdentifier  map[string]string

	// IssuerAddress is reported on every recorded entry.
	IssuerAddress string

	// RecordErr, RevokeErr and LookupErr let callers inject failures for the
	// next matching operation.
	RecordErr error
	RevokeErr error
	LookupErr error
}

// NewMemoryClient creates an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		byFingerprint: make(map[string]*Entry),
		byIdentifier:  make(map[string]string),
		IssuerAddress: "0xmemledger",
	}
}

// Record anchors (identifier, fingerprint) in memory.
func (m *MemoryClient) Record(_ context.Context, identifier, fingerprint string) (*Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return nil, m.RecordErr
	}
	if _, ok := m.byIdentifier[identifier]; ok {
		return nil, DuplicateIdentifierError("identifier already recorded: " + identifier)
	}
	if _, ok := m.byFingerprint[fingerprint]; ok {
		return nil, RejectedError("fingerprint already anchored")
	}
	m.byFingerprint[fingerprint] = &Entry{
		Identifier:    identifier,
		IssuerAddress: m.IssuerAddress,
		RecordedAt:    time.Now().UTC(),
		Exists:        true,
	}
	m.byIdentifier[identifier] = fingerprint
	return &Receipt{
		TransactionRef: fmt.Sprintf("0xtx-%s", identifier),
		BlockNumber:    uint64(len(m.byIdentifier)),
	}, nil
}

// Revoke marks the identifier revoked.
func (m *MemoryClient) Revoke(_ context.Context, identifier string) (*Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeErr != nil {
		return nil, m.RevokeErr
	}
	fp, ok := m.byIdentifier[identifier]
	if !ok {
		return nil, NotFoundError("identifier not recorded: " + identifier)
	}
	m.byFingerprint[fp].Revoked = true
	return &Receipt{TransactionRef: fmt.Sprintf("0xrevoke-%s", identifier)}, nil
}

// LookupByFingerprint returns the entry for fingerprint; Exists is false when
// the fingerprint was never anchored.
func (m *MemoryClient) LookupByFingerprint(_ context.Context, fingerprint string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	e, ok := m.byFingerprint[fingerprint]
	if !ok {
		return &Entry{Exists: false}, nil
	}
	cp := *e
	return &cp, nil
}
