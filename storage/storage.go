package storage

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trustlayer/trustlayer/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.Certificate{},
	&model.VerificationEvent{},
	&model.ReconciliationDebt{},
	&model.KeyValue{},
	&model.User{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// CertificateStorage returns a CertificateStorage
func (s *Storage) CertificateStorage() *CertificateStorage {
	return &CertificateStorage{db: s.db}
}

// VerificationLogStorage returns a VerificationLogStorage
func (s *Storage) VerificationLogStorage() *VerificationLogStorage {
	return &VerificationLogStorage{db: s.db}
}

// DebtStorage returns a DebtStorage
func (s *Storage) DebtStorage() *DebtStorage {
	return &DebtStorage{db: s.db}
}

// KeyValue provides an accessor for scoped key-value storage.
func (s *Storage) KeyValue() *KeyValueStorage {
	return &KeyValueStorage{db: s.db}
}

// isUniqueConstraintError reports whether err stems from a violated
// uniqueness constraint, across the supported drivers.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key value") // postgres
}
