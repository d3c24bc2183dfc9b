package verification

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/storage/model"
)

// DefaultCacheTTL is how long conclusive verdicts are cached when no TTL is
// configured.
const DefaultCacheTTL = 30 * time.Second

// Engine reconciles the ledger's anchored state with the local registry into
// a single verdict per fingerprint. The ledger is always consulted first;
// when it cannot be reached the engine fails closed with an indeterminate
// verdict instead of answering from the registry alone.
type Engine struct {
	Ledger       ledger.Client
	Certificates model.CertificateStore
	Log          model.VerificationLogStore
	Cache        VerdictCache
	CacheTTL     time.Duration

	now func() time.Time
}

// NewEngine creates a new Engine. cache may be nil to disable verdict
// caching.
func NewEngine(
	l ledger.Client, certs model.CertificateStore, logStore model.VerificationLogStore,
	cache VerdictCache, cacheTTL time.Duration,
) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Engine{
		Ledger:       l,
		Certificates: certs,
		Log:          logStore,
		Cache:        cache,
		CacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// Verify reconciles the passed fingerprint and returns a Verdict. The
// verification is appended to the audit log; a failing log write does not
// change the verdict. verifierID may be empty for unauthenticated
// verifications.
func (e *Engine) Verify(ctx context.Context, fingerprint, verifierID string) Verdict {
	v := e.reconcile(ctx, fingerprint)
	e.logEvent(verifierID, v)
	return v
}

// VerifyByCertID looks up the certificate's stored fingerprint and verifies
// it through the same reconciliation path as Verify.
func (e *Engine) VerifyByCertID(ctx context.Context, certID, verifierID string) Verdict {
	cert, err := e.Certificates.ByCertID(certID)
	if err != nil {
		v := Verdict{
			State:  StateIndeterminate,
			CertID: certID,
			Cause:  "registry lookup failed",
		}
		log.WithError(err).WithField("cert_id", certID).Error("could not load certificate for verification")
		e.logEvent(verifierID, v)
		return v
	}
	if cert == nil {
		v := Verdict{
			State:  StateNotFound,
			CertID: certID,
		}
		e.logEvent(verifierID, v)
		return v
	}
	v := e.reconcile(ctx, cert.Fingerprint)
	e.logEvent(verifierID, v)
	return v
}

func (e *Engine) reconcile(ctx context.Context, fingerprint string) Verdict {
	if e.Cache != nil {
		cached, err := e.Cache.Get(ctx, fingerprint)
		if err != nil {
			log.WithError(err).Warn("verdict cache read failed")
		} else if cached != nil {
			return *cached
		}
	}

	entry, err := e.Ledger.LookupByFingerprint(ctx, fingerprint)
	if err != nil {
		cause := "ledger error"
		if ledger.IsUnreachable(err) {
			cause = "ledger unreachable"
		}
		log.WithError(err).WithField("fingerprint", fingerprint).Error("ledger lookup failed")
		return Verdict{
			State:       StateIndeterminate,
			Fingerprint: fingerprint,
			Cause:       cause,
		}
	}

	if !entry.Exists {
		return e.finish(ctx, Verdict{State: StateNotFound, Fingerprint: fingerprint})
	}

	v := Verdict{
		Fingerprint:   fingerprint,
		CertID:        entry.Identifier,
		IssuerAddress: entry.IssuerAddress,
	}
	if !entry.RecordedAt.IsZero() {
		recordedAt := entry.RecordedAt
		v.RecordedAt = &recordedAt
	}

	cert, certErr := e.Certificates.ByFingerprint(fingerprint)
	registryRevoked := false
	if certErr == nil && cert != nil {
		v.CertID = cert.CertID
		v.SubjectName = cert.SubjectName
		v.Course = cert.Course
		v.ExpiresAt = cert.ExpiresAt
		registryRevoked = cert.Revoked
	}

	// An anchored revocation is final no matter what the registry holds, so
	// it is decided before a registry failure can make the verdict
	// indeterminate.
	if entry.Revoked {
		v.State = StateRevoked
		return e.finish(ctx, v)
	}
	if certErr != nil {
		log.WithError(certErr).WithField("fingerprint", fingerprint).Error("registry lookup failed")
		v.State = StateIndeterminate
		v.Cause = "registry lookup failed"
		return v
	}

	switch {
	case registryRevoked:
		v.State = StateRevoked
	case cert != nil && cert.Expired(e.now()):
		v.State = StateExpired
	default:
		v.State = StateAuthentic
	}
	return e.finish(ctx, v)
}

// finish caches a conclusive verdict before returning it.
func (e *Engine) finish(ctx context.Context, v Verdict) Verdict {
	if e.Cache != nil && v.Conclusive() {
		if err := e.Cache.Set(ctx, v.Fingerprint, v, e.CacheTTL); err != nil {
			log.WithError(err).Warn("verdict cache write failed")
		}
	}
	return v
}

func (e *Engine) logEvent(verifierID string, v Verdict) {
	if e.Log == nil {
		return
	}
	event := model.VerificationEvent{
		Fingerprint: v.Fingerprint,
		CertID:      v.CertID,
		VerifierID:  verifierID,
		Verdict:     string(v.State),
	}
	if err := e.Log.Append(&event); err != nil {
		log.WithError(err).Warn("could not append verification event")
	}
}
