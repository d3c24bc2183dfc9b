package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trustlayer/trustlayer/storage/model"
)

// VerificationLogStorage implements the model.VerificationLogStore interface
type VerificationLogStorage struct {
	db *gorm.DB
}

// Append records a verification event
func (s *VerificationLogStorage) Append(event *model.VerificationEvent) error {
	return errors.Wrap(s.db.Create(event).Error, "verification log: append failed")
}

// Recent returns the most recent verification events, newest first
func (s *VerificationLogStorage) Recent(limit int) ([]model.VerificationEvent, error) {
	var events []model.VerificationEvent
	err := s.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "verification log: query failed")
	}
	return events, nil
}

// ForVerifier returns the most recent verification events performed by
// verifierID, newest first
func (s *VerificationLogStorage) ForVerifier(verifierID string, limit int) ([]model.VerificationEvent, error) {
	var events []model.VerificationEvent
	err := s.db.Where("verifier_id = ?", verifierID).
		Order("created_at DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "verification log: query failed")
	}
	return events, nil
}
