package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/trustlayer/trustlayer/storage/model"
)

// legacyCertificate is the row format of the old badger-backed registry.
type legacyCertificate struct {
	CertID      string     `json:"cert_id" msgpack:"cert_id"`
	FileHash    string     `json:"file_hash" msgpack:"file_hash"`
	TxHash      string     `json:"tx_hash" msgpack:"tx_hash"`
	BlockNumber uint64     `json:"block_number" msgpack:"block_number"`
	Issuer      string     `json:"issuer" msgpack:"issuer"`
	SubjectName string     `json:"candidate_name" msgpack:"candidate_name"`
	Course      string     `json:"course" msgpack:"course"`
	Revoked     bool       `json:"revoked" msgpack:"revoked"`
	ExpiresAt   *time.Time `json:"expires_at" msgpack:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" msgpack:"created_at"`
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (cert *legacyCertificate) UnmarshalJSON(src []byte) error {
	type certificate legacyCertificate
	cc := certificate(*cert)
	if err := json.Unmarshal(src, &cc); err != nil {
		return err
	}
	*cert = legacyCertificate(cc)
	return nil
}

// UnmarshalMsgpack implements the msgpack.Unmarshaler interface
func (cert *legacyCertificate) UnmarshalMsgpack(src []byte) error {
	type certificate legacyCertificate
	cc := certificate(*cert)
	if err := msgpack.Unmarshal(src, &cc); err != nil {
		return err
	}
	*cert = legacyCertificate(cc)
	return nil
}

// toModel maps a legacy row to the GORM registry model. Legacy rows store the
// fingerprint in its 0x-prefixed wire form.
func (cert *legacyCertificate) toModel() *model.Certificate {
	return &model.Certificate{
		CertID:      cert.CertID,
		Fingerprint: strings.TrimPrefix(strings.ToLower(cert.FileHash), "0x"),
		LedgerTxRef: cert.TxHash,
		BlockNumber: cert.BlockNumber,
		IssuerID:    cert.Issuer,
		SubjectName: cert.SubjectName,
		Course:      cert.Course,
		Revoked:     cert.Revoked,
		ExpiresAt:   cert.ExpiresAt,
	}
}
