package issuance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer/fingerprint"
	"github.com/trustlayer/trustlayer/internal/qrcode"
	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/storage/model"
	"github.com/trustlayer/trustlayer/verification"
)

// DefaultMaxIDAttempts bounds certificate id regeneration on registry
// collisions.
const DefaultMaxIDAttempts = 5

// Meta carries the certificate metadata supplied by the issuer. It is stored
// in the registry only; the ledger sees nothing but identifier and
// fingerprint.
type Meta struct {
	SubjectName string
	Course      string
	ExpiresAt   *time.Time
}

// Orchestrator drives certificate issuance and revocation across the ledger
// and the registry. All ledger writes are funneled through the Submitter so
// that writes for one issuer never interleave.
type Orchestrator struct {
	Ledger        ledger.Client
	Certificates  model.CertificateStore
	Debts         model.ReconciliationDebtStore
	Submitter     *Submitter
	Cache         verification.VerdictCache
	VerifyBaseURL string
	MaxIDAttempts int

	newID func() string
}

// NewOrchestrator creates an Orchestrator. cache may be nil; verifyBaseURL is
// the base of the public verification URL embedded in QR codes.
func NewOrchestrator(
	l ledger.Client, certs model.CertificateStore, debts model.ReconciliationDebtStore,
	submitter *Submitter, cache verification.VerdictCache, verifyBaseURL string,
) *Orchestrator {
	return &Orchestrator{
		Ledger:        l,
		Certificates:  certs,
		Debts:         debts,
		Submitter:     submitter,
		Cache:         cache,
		VerifyBaseURL: verifyBaseURL,
		MaxIDAttempts: DefaultMaxIDAttempts,
		newID:         newCertID,
	}
}

// newCertID generates a certificate identifier of the form CERT-XXXXXXXX.
func newCertID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CERT-" + strings.ToUpper(id[:8])
}

// Issue fingerprints content, anchors it in the ledger and persists the
// certificate in the registry. On a ledger failure no registry row is
// written; on a registry failure after a successful ledger write a
// *PartialIssuanceError is returned and the ledger write is never retried.
func (o *Orchestrator) Issue(
	ctx context.Context, content []byte, issuerID string, meta Meta,
) (*model.Certificate, error) {
	fp := fingerprint.Fingerprint(content)

	existing, err := o.Certificates.ByFingerprint(fp)
	if err != nil {
		return nil, errors.Wrap(err, "could not check for existing certificate")
	}
	if existing != nil {
		return nil, &DuplicateContentError{CertID: existing.CertID}
	}

	certID, err := o.freeCertID()
	if err != nil {
		return nil, err
	}

	qrPayload, err := qrcode.PNG(o.verifyURL(certID), qrcode.DefaultSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not render qr code")
	}

	cert := &model.Certificate{
		CertID:      certID,
		Fingerprint: fp,
		IssuerID:    issuerID,
		SubjectName: meta.SubjectName,
		Course:      meta.Course,
		ExpiresAt:   meta.ExpiresAt,
		QRPayload:   qrPayload,
	}

	err = o.Submitter.Do(
		ctx, issuerID, func() error {
			receipt, err := o.Ledger.Record(ctx, certID, fp)
			if err != nil {
				return errors.Wrap(err, "ledger record failed")
			}
			cert.LedgerTxRef = receipt.TransactionRef
			cert.BlockNumber = receipt.BlockNumber
			if err = o.Certificates.Create(cert); err != nil {
				return &PartialIssuanceError{
					CertID:         certID,
					TransactionRef: receipt.TransactionRef,
					Err:            err,
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"cert_id": certID,
			"issuer":  issuerID,
			"tx_ref":  cert.LedgerTxRef,
		},
	).Info("issued certificate")
	return cert, nil
}

// Revoke revokes the certificate on both sides. The requester must be the
// issuing account unless elevated. The registry revocation proceeds even when
// the ledger revoke fails; the divergence is then recorded as a
// reconciliation debt for an operator to settle.
func (o *Orchestrator) Revoke(ctx context.Context, certID, requesterID string, elevated bool) error {
	cert, err := o.Certificates.ByCertID(certID)
	if err != nil {
		return errors.Wrap(err, "could not load certificate")
	}
	if cert == nil {
		return model.NotFoundErrorFmt("certificate not found: %s", certID)
	}
	if !elevated && cert.IssuerID != requesterID {
		return NotAuthorizedError("certificate belongs to a different issuer")
	}
	if cert.Revoked {
		return nil
	}

	err = o.Submitter.Do(
		ctx, cert.IssuerID, func() error {
			_, ledgerErr := o.Ledger.Revoke(ctx, certID)
			if markErr := o.Certificates.MarkRevoked(certID); markErr != nil {
				if ledgerErr == nil {
					return errors.Wrap(markErr, "registry revoke failed after ledger revoke")
				}
				return errors.Wrap(markErr, "registry revoke failed")
			}
			if ledgerErr != nil {
				log.WithError(ledgerErr).WithField("cert_id", certID).
					Error("ledger revoke failed, registry revoked anyway")
				if err := o.Debts.Record(certID, model.DebtOperationRevoke, ledgerErr.Error()); err != nil {
					return errors.Wrap(err, "could not record reconciliation debt")
				}
			}
			return nil
		},
	)
	if err != nil {
		return err
	}

	if o.Cache != nil {
		if err := o.Cache.Delete(ctx, cert.Fingerprint); err != nil {
			log.WithError(err).Warn("could not invalidate cached verdict")
		}
	}
	log.WithFields(
		log.Fields{
			"cert_id":   certID,
			"requester": requesterID,
		},
	).Info("revoked certificate")
	return nil
}

func (o *Orchestrator) freeCertID() (string, error) {
	attempts := o.MaxIDAttempts
	if attempts <= 0 {
		attempts = DefaultMaxIDAttempts
	}
	for i := 0; i < attempts; i++ {
		id := o.newID()
		existing, err := o.Certificates.ByCertID(id)
		if err != nil {
			return "", errors.Wrap(err, "could not check certificate id")
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", &IdentifierCollisionError{Attempts: attempts}
}

func (o *Orchestrator) verifyURL(certID string) string {
	base := strings.TrimSuffix(o.VerifyBaseURL, "/")
	return base + "/public/certificates/" + certID
}
