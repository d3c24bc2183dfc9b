package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trustlayer/trustlayer/storage/model"
)

// DebtStorage implements the model.ReconciliationDebtStore interface
type DebtStorage struct {
	db *gorm.DB
}

// Record stores a new open reconciliation debt
func (s *DebtStorage) Record(certID, operation, detail string) error {
	debt := model.ReconciliationDebt{
		CertID:    certID,
		Operation: operation,
		Detail:    detail,
	}
	return errors.Wrap(s.db.Create(&debt).Error, "debts: record failed")
}

// Open returns all unresolved debts, oldest first
func (s *DebtStorage) Open() ([]model.ReconciliationDebt, error) {
	var debts []model.ReconciliationDebt
	err := s.db.Where("resolved = ?", false).Order("created_at ASC").Find(&debts).Error
	if err != nil {
		return nil, errors.Wrap(err, "debts: query failed")
	}
	return debts, nil
}

// Resolve marks the debt with the given id as resolved
func (s *DebtStorage) Resolve(id uint) error {
	result := s.db.Model(&model.ReconciliationDebt{}).Where("id = ?", id).
		Update("resolved", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "debts: resolve failed")
	}
	if result.RowsAffected == 0 {
		return model.NotFoundErrorFmt("debt not found: %d", id)
	}
	return nil
}
