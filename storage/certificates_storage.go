package storage

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trustlayer/trustlayer/storage/model"
)

// CertificateStorage implements the model.CertificateStore interface
type CertificateStorage struct {
	db *gorm.DB
}

// Create persists a new certificate row
func (s *CertificateStorage) Create(cert *model.Certificate) error {
	if err := s.db.Create(cert).Error; err != nil {
		if isUniqueConstraintError(err) {
			return model.AlreadyExistsErrorFmt("certificate already exists: %s", cert.CertID)
		}
		return errors.Wrap(err, "certificates: create failed")
	}
	return nil
}

// ByCertID retrieves a certificate by its identifier
func (s *CertificateStorage) ByCertID(certID string) (*model.Certificate, error) {
	var cert model.Certificate
	result := s.db.Where("cert_id = ?", certID).First(&cert)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find certificate: %w", result.Error)
	}
	return &cert, nil
}

// ByFingerprint retrieves a certificate by its content fingerprint
func (s *CertificateStorage) ByFingerprint(fingerprint string) (*model.Certificate, error) {
	var cert model.Certificate
	result := s.db.Where("fingerprint = ?", fingerprint).First(&cert)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find certificate: %w", result.Error)
	}
	return &cert, nil
}

// ForIssuer lists all certificates issued by issuerID, newest first
func (s *CertificateStorage) ForIssuer(issuerID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := s.db.Where("issuer_id = ?", issuerID).Order("created_at DESC").Find(&certs).Error
	if err != nil {
		return nil, errors.Wrap(err, "certificates: list for issuer failed")
	}
	return certs, nil
}

// All lists every certificate, newest first
func (s *CertificateStorage) All() ([]model.Certificate, error) {
	var certs []model.Certificate
	if err := s.db.Order("created_at DESC").Find(&certs).Error; err != nil {
		return nil, errors.Wrap(err, "certificates: list failed")
	}
	return certs, nil
}

// MarkRevoked sets the revoked flag on a certificate. Revoking an already
// revoked certificate is a no-op success so that racing revocations stay
// harmless.
func (s *CertificateStorage) MarkRevoked(certID string) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var cert model.Certificate
			result := tx.Where("cert_id = ?", certID).First(&cert)
			if result.Error != nil {
				if errors.Is(result.Error, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("certificate not found: %s", certID)
				}
				return errors.Wrap(result.Error, "certificates: revoke lookup failed")
			}
			if cert.Revoked {
				return nil
			}
			return tx.Model(&cert).Update("revoked", true).Error
		},
	)
}

// Count returns the number of certificates matching the filter
func (s *CertificateStorage) Count(filter model.CertificateFilter) (int64, error) {
	query := s.db.Model(&model.Certificate{})
	if filter.IssuerID != "" {
		query = query.Where("issuer_id = ?", filter.IssuerID)
	}
	if filter.Revoked != nil {
		query = query.Where("revoked = ?", *filter.Revoked)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "certificates: count failed")
	}
	return count, nil
}
