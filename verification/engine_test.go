package verification

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/storage/model"
)

type fakeCertStore struct {
	byFingerprint map[string]*model.Certificate
	byCertID      map[string]*model.Certificate
	fpErr         error
}

func newFakeCertStore() *fakeCertStore {
	return &fakeCertStore{
		byFingerprint: make(map[string]*model.Certificate),
		byCertID:      make(map[string]*model.Certificate),
	}
}

func (s *fakeCertStore) add(cert *model.Certificate) {
	s.byFingerprint[cert.Fingerprint] = cert
	s.byCertID[cert.CertID] = cert
}

func (s *fakeCertStore) Create(cert *model.Certificate) error {
	s.add(cert)
	return nil
}

func (s *fakeCertStore) ByCertID(certID string) (*model.Certificate, error) {
	return s.byCertID[certID], nil
}

func (s *fakeCertStore) ByFingerprint(fp string) (*model.Certificate, error) {
	if s.fpErr != nil {
		return nil, s.fpErr
	}
	return s.byFingerprint[fp], nil
}

func (s *fakeCertStore) ForIssuer(string) ([]model.Certificate, error) { return nil, nil }
func (s *fakeCertStore) All() ([]model.Certificate, error)            { return nil, nil }

func (s *fakeCertStore) MarkRevoked(certID string) error {
	cert, ok := s.byCertID[certID]
	if !ok {
		return model.NotFoundErrorFmt("certificate not found: %s", certID)
	}
	cert.Revoked = true
	return nil
}

func (s *fakeCertStore) Count(model.CertificateFilter) (int64, error) { return 0, nil }

type fakeVerificationLog struct {
	events []model.VerificationEvent
	err    error
}

func (l *fakeVerificationLog) Append(e *model.VerificationEvent) error {
	if l.err != nil {
		return l.err
	}
	l.events = append(l.events, *e)
	return nil
}

func (l *fakeVerificationLog) Recent(int) ([]model.VerificationEvent, error) {
	return l.events, nil
}

func (l *fakeVerificationLog) ForVerifier(string, int) ([]model.VerificationEvent, error) {
	return nil, nil
}

const testFingerprint = "a6baba6d3041933327218b4533db358c0345f9dd4f7fd87afcd8acc3de1ed412"

func anchoredSetup(t *testing.T) (*ledger.MemoryClient, *fakeCertStore, *fakeVerificationLog, *Engine) {
	t.Helper()
	lc := ledger.NewMemoryClient()
	if _, err := lc.Record(context.Background(), "CERT-TEST0001", testFingerprint); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	certs := newFakeCertStore()
	certs.add(
		&model.Certificate{
			CertID:      "CERT-TEST0001",
			Fingerprint: testFingerprint,
			IssuerID:    "issuer-1",
			SubjectName: "Alice",
			Course:      "Distributed Systems",
		},
	)
	events := &fakeVerificationLog{}
	return lc, certs, events, NewEngine(lc, certs, events, nil, 0)
}

func TestVerifyAuthentic(t *testing.T) {
	_, _, events, engine := anchoredSetup(t)

	v := engine.Verify(context.Background(), testFingerprint, "verifier-1")
	if v.State != StateAuthentic {
		t.Fatalf("expected authentic, got %s (cause %q)", v.State, v.Cause)
	}
	if v.CertID != "CERT-TEST0001" || v.SubjectName != "Alice" {
		t.Fatalf("verdict missing registry details: %+v", v)
	}
	if v.IssuerAddress == "" || v.RecordedAt == nil {
		t.Fatalf("verdict missing ledger details: %+v", v)
	}
	if len(events.events) != 1 || events.events[0].Verdict != "authentic" {
		t.Fatalf("expected one authentic event, got %+v", events.events)
	}
	if events.events[0].VerifierID != "verifier-1" {
		t.Fatalf("event missing verifier: %+v", events.events[0])
	}
}

func TestVerifyNotFound(t *testing.T) {
	_, _, _, engine := anchoredSetup(t)

	v := engine.Verify(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000", "")
	if v.State != StateNotFound {
		t.Fatalf("expected not_found, got %s", v.State)
	}
}

func TestVerifyLedgerUnreachableFailsClosed(t *testing.T) {
	lc, certs, _, engine := anchoredSetup(t)
	lc.LookupErr = ledger.Unreachable(errors.New("connection refused"))

	// The registry knows the certificate, but without the ledger no
	// positive statement may be made.
	if certs.byFingerprint[testFingerprint] == nil {
		t.Fatal("setup: registry row missing")
	}
	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateIndeterminate {
		t.Fatalf("expected indeterminate, got %s", v.State)
	}
	if v.Cause != "ledger unreachable" {
		t.Fatalf("unexpected cause %q", v.Cause)
	}
}

func TestVerifyLedgerRevocationWins(t *testing.T) {
	lc, _, _, engine := anchoredSetup(t)
	if _, err := lc.Revoke(context.Background(), "CERT-TEST0001"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateRevoked {
		t.Fatalf("expected revoked, got %s", v.State)
	}
}

func TestVerifyRegistryRevocationWins(t *testing.T) {
	_, certs, _, engine := anchoredSetup(t)
	certs.byFingerprint[testFingerprint].Revoked = true

	// Revocations are combined with OR: the registry flag alone is enough.
	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateRevoked {
		t.Fatalf("expected revoked, got %s", v.State)
	}
}

func TestVerifyExpired(t *testing.T) {
	_, certs, _, engine := anchoredSetup(t)
	past := time.Now().Add(-time.Hour)
	certs.byFingerprint[testFingerprint].ExpiresAt = &past

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateExpired {
		t.Fatalf("expected expired, got %s", v.State)
	}
}

func TestVerifyRevokedBeatsExpired(t *testing.T) {
	_, certs, _, engine := anchoredSetup(t)
	past := time.Now().Add(-time.Hour)
	certs.byFingerprint[testFingerprint].ExpiresAt = &past
	certs.byFingerprint[testFingerprint].Revoked = true

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateRevoked {
		t.Fatalf("expected revoked, got %s", v.State)
	}
}

func TestVerifyRegistryFailureIsIndeterminate(t *testing.T) {
	_, certs, _, engine := anchoredSetup(t)
	certs.fpErr = errors.New("database locked")

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateIndeterminate {
		t.Fatalf("expected indeterminate, got %s", v.State)
	}
	if v.Cause != "registry lookup failed" {
		t.Fatalf("unexpected cause %q", v.Cause)
	}
}

func TestVerifyLedgerRevocationWinsOverRegistryFailure(t *testing.T) {
	lc, certs, _, engine := anchoredSetup(t)
	if _, err := lc.Revoke(context.Background(), "CERT-TEST0001"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	certs.fpErr = errors.New("database locked")

	// The anchored revocation is decided without the registry.
	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateRevoked {
		t.Fatalf("expected revoked, got %s (cause %q)", v.State, v.Cause)
	}
}

func TestVerifyByCertID(t *testing.T) {
	_, _, _, engine := anchoredSetup(t)

	v := engine.VerifyByCertID(context.Background(), "CERT-TEST0001", "verifier-1")
	if v.State != StateAuthentic {
		t.Fatalf("expected authentic, got %s", v.State)
	}

	v = engine.VerifyByCertID(context.Background(), "CERT-UNKNOWN1", "verifier-1")
	if v.State != StateNotFound {
		t.Fatalf("expected not_found for unknown cert id, got %s", v.State)
	}
}

func TestVerifyLogFailureDoesNotChangeVerdict(t *testing.T) {
	_, _, events, engine := anchoredSetup(t)
	events.err = errors.New("log table locked")

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateAuthentic {
		t.Fatalf("expected authentic despite log failure, got %s", v.State)
	}
}

func TestVerdictCacheServesRepeatLookups(t *testing.T) {
	lc, certs, events, _ := anchoredSetup(t)
	cache := NewMemoryVerdictCache()
	engine := NewEngine(lc, certs, events, cache, time.Minute)

	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateAuthentic {
		t.Fatalf("expected authentic, got %s", v.State)
	}

	// Within the TTL a repeat verification answers from the cache.
	lc.LookupErr = ledger.Unreachable(errors.New("connection refused"))
	v = engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateAuthentic {
		t.Fatalf("expected cached authentic verdict, got %s", v.State)
	}

	// Invalidation forces the next verification back to the ledger.
	if err := cache.Delete(context.Background(), testFingerprint); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	v = engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateIndeterminate {
		t.Fatalf("expected indeterminate after invalidation, got %s", v.State)
	}
}

func TestVerdictCacheSkipsIndeterminate(t *testing.T) {
	lc, certs, events, _ := anchoredSetup(t)
	cache := NewMemoryVerdictCache()
	engine := NewEngine(lc, certs, events, cache, time.Minute)

	lc.LookupErr = ledger.Unreachable(errors.New("connection refused"))
	v := engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateIndeterminate {
		t.Fatalf("expected indeterminate, got %s", v.State)
	}

	lc.LookupErr = nil
	v = engine.Verify(context.Background(), testFingerprint, "")
	if v.State != StateAuthentic {
		t.Fatalf("indeterminate verdict must not be cached, got %s", v.State)
	}
}
