package model

import (
	"time"
)

// Operations that can leave a reconciliation debt behind.
const (
	DebtOperationRevoke = "revoke"
)

// ReconciliationDebt records a known divergence between the registry and the
// ledger, e.g. a registry-side revocation whose ledger write failed. Debts are
// resolved manually by an operator once the ledger has been brought back in
// line.
type ReconciliationDebt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	CertID    string `gorm:"index;size:64" json:"cert_id"`
	Operation string `json:"operation"`
	// Detail carries the failure that caused the divergence.
	Detail   string `json:"detail"`
	Resolved bool   `gorm:"index" json:"resolved"`
}

// ReconciliationDebtStore tracks open ledger/registry divergences.
type ReconciliationDebtStore interface {
	// Record stores a new open debt
	Record(certID, operation, detail string) error
	// Open returns all unresolved debts, oldest first
	Open() ([]ReconciliationDebt, error)
	// Resolve marks a debt as handled
	Resolve(id uint) error
}
