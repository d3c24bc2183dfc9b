package issuance

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trustlayer/trustlayer/fingerprint"
	"github.com/trustlayer/trustlayer/ledger"
	"github.com/trustlayer/trustlayer/storage/model"
	"github.com/trustlayer/trustlayer/verification"
)

type fakeCertStore struct {
	byFingerprint map[string]*model.Certificate
	byCertID      map[string]*model.Certificate
	createErr     error
}

func newFakeCertStore() *fakeCertStore {
	return &fakeCertStore{
		byFingerprint: make(map[string]*model.Certificate),
		byCertID:      make(map[string]*model.Certificate),
	}
}

func (s *fakeCertStore) Create(cert *model.Certificate) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.byFingerprint[cert.Fingerprint] = cert
	s.byCertID[cert.CertID] = cert
	return nil
}

func (s *fakeCertStore) ByCertID(certID string) (*model.Certificate, error) {
	return s.byCertID[certID], nil
}

func (s *fakeCertStore) ByFingerprint(fp string) (*model.Certificate, error) {
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

type fakeDebtStore struct {
	debts []model.ReconciliationDebt
}

func (s *fakeDebtStore) Record(certID, operation, detail string) error {
	s.debts = append(
		s.debts, model.ReconciliationDebt{
			CertID:    certID,
			Operation: operation,
			Detail:    detail,
		},
	)
	return nil
}

func (s *fakeDebtStore) Open() ([]model.ReconciliationDebt, error) { return s.debts, nil }
func (s *fakeDebtStore) Resolve(uint) error                       { return nil }

func testOrchestrator(t *testing.T) (*Orchestrator, *ledger.MemoryClient, *fakeCertStore, *fakeDebtStore) {
	t.Helper()
	lc := ledger.NewMemoryClient()
	certs := newFakeCertStore()
	debts := &fakeDebtStore{}
	o := NewOrchestrator(
		lc, certs, debts, NewSubmitter(0), nil,
		"https://verify.example.com",
	)
	return o, lc, certs, debts
}

func TestIssue(t *testing.T) {
	o, lc, certs, _ := testOrchestrator(t)
	content := []byte("diploma-123")

	cert, err := o.Issue(context.Background(), content, "issuer-1", Meta{SubjectName: "Alice", Course: "Go"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(cert.CertID) != 13 || cert.CertID[:5] != "CERT-" {
		t.Fatalf("unexpected cert id %q", cert.CertID)
	}
	if cert.Fingerprint != fingerprint.Fingerprint(content) {
		t.Fatalf("unexpected fingerprint %q", cert.Fingerprint)
	}
	if cert.LedgerTxRef == "" {
		t.Fatal("cert missing ledger tx ref")
	}
	if len(cert.QRPayload) == 0 {
		t.Fatal("cert missing qr payload")
	}
	if certs.byCertID[cert.CertID] == nil {
		t.Fatal("cert not persisted")
	}
	entry, err := lc.LookupByFingerprint(context.Background(), cert.Fingerprint)
	if err != nil || !entry.Exists {
		t.Fatalf("fingerprint not anchored: %v %+v", err, entry)
	}
}

func TestIssueDuplicateContent(t *testing.T) {
	o, _, _, _ := testOrchestrator(t)
	content := []byte("diploma-123")

	first, err := o.Issue(context.Background(), content, "issuer-1", Meta{SubjectName: "Alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, err = o.Issue(context.Background(), content, "issuer-2", Meta{SubjectName: "Bob"})
	var dupErr *DuplicateContentError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateContentError, got %v", err)
	}
	if dupErr.CertID != first.CertID {
		t.Fatalf("duplicate error names wrong cert: %q", dupErr.CertID)
	}
}

func TestIssueLedgerFailure(t *testing.T) {
	o, lc, certs, _ := testOrchestrator(t)
	lc.RecordErr = ledger.Unreachable(errors.New("connection refused"))

	_, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	if err == nil {
		t.Fatal("Issue should fail when the ledger is unreachable")
	}
	if len(certs.byCertID) != 0 {
		t.Fatal("no registry row may exist after a ledger failure")
	}
}

func TestIssuePartialFailure(t *testing.T) {
	o, lc, certs, _ := testOrchestrator(t)
	certs.createErr = errors.New("disk full")

	_, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	var partial *PartialIssuanceError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialIssuanceError, got %v", err)
	}
	if partial.TransactionRef == "" {
		t.Fatal("partial issuance error must carry the transaction ref")
	}
	entry, lookupErr := lc.LookupByFingerprint(
		context.Background(), fingerprint.Fingerprint([]byte("diploma-123")),
	)
	if lookupErr != nil || !entry.Exists {
		t.Fatal("the ledger write must stand even though the registry persist failed")
	}
}

func TestIssueIdentifierCollision(t *testing.T) {
	o, _, certs, _ := testOrchestrator(t)
	o.newID = func() string { return "CERT-SAME0000" }
	certs.byCertID["CERT-SAME0000"] = &model.Certificate{CertID: "CERT-SAME0000"}

	_, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	var collision *IdentifierCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("expected IdentifierCollisionError, got %v", err)
	}
	if collision.Attempts != DefaultMaxIDAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxIDAttempts, collision.Attempts)
	}
}

func TestRevoke(t *testing.T) {
	o, lc, certs, debts := testOrchestrator(t)
	cache := verification.NewMemoryVerdictCache()
	o.Cache = cache

	cert, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := cache.Set(
		context.Background(), cert.Fingerprint,
		verification.Verdict{State: verification.StateAuthentic, Fingerprint: cert.Fingerprint},
		verification.DefaultCacheTTL,
	); err != nil {
		t.Fatalf("cache Set failed: %v", err)
	}

	if err := o.Revoke(context.Background(), cert.CertID, "issuer-1", false); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !certs.byCertID[cert.CertID].Revoked {
		t.Fatal("registry row should be revoked")
	}
	entry, _ := lc.LookupByFingerprint(context.Background(), cert.Fingerprint)
	if !entry.Revoked {
		t.Fatal("ledger entry should be revoked")
	}
	if len(debts.debts) != 0 {
		t.Fatalf("no debt expected on a clean revoke, got %+v", debts.debts)
	}
	cached, _ := cache.Get(context.Background(), cert.Fingerprint)
	if cached != nil {
		t.Fatal("cached verdict should be invalidated on revoke")
	}

	// Revoking again stays a no-op success
	if err := o.Revoke(context.Background(), cert.CertID, "issuer-1", false); err != nil {
		t.Fatalf("repeat Revoke failed: %v", err)
	}
}

func TestRevokeAuthorization(t *testing.T) {
	o, _, _, _ := testOrchestrator(t)
	cert, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	err = o.Revoke(context.Background(), cert.CertID, "issuer-2", false)
	if _, ok := err.(NotAuthorizedError); !ok {
		t.Fatalf("expected NotAuthorizedError, got %v", err)
	}

	// Elevated requesters may revoke any certificate
	if err := o.Revoke(context.Background(), cert.CertID, "admin", true); err != nil {
		t.Fatalf("elevated Revoke failed: %v", err)
	}
}

func TestRevokeUnknownCert(t *testing.T) {
	o, _, _, _ := testOrchestrator(t)
	err := o.Revoke(context.Background(), "CERT-UNKNOWN1", "issuer-1", false)
	if _, ok := errors.Cause(err).(model.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRevokeLedgerFailureRecordsDebt(t *testing.T) {
	o, lc, certs, debts := testOrchestrator(t)
	cert, err := o.Issue(context.Background(), []byte("diploma-123"), "issuer-1", Meta{SubjectName: "Alice"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	lc.RevokeErr = ledger.Unreachable(errors.New("connection refused"))
	if err := o.Revoke(context.Background(), cert.CertID, "issuer-1", false); err != nil {
		t.Fatalf("Revoke should succeed locally despite ledger failure, got %v", err)
	}
	if !certs.byCertID[cert.CertID].Revoked {
		t.Fatal("registry row should be revoked")
	}
	if len(debts.debts) != 1 {
		t.Fatalf("expected one reconciliation debt, got %d", len(debts.debts))
	}
	debt := debts.debts[0]
	if debt.CertID != cert.CertID || debt.Operation != model.DebtOperationRevoke {
		t.Fatalf("unexpected debt %+v", debt)
	}
}

func TestCertIDFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newCertID()
		if len(id) != 13 || id[:5] != "CERT-" {
			t.Fatalf("unexpected cert id %q", id)
		}
		for _, c := range id[5:] {
			if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
				t.Fatalf("cert id %q contains non-hex character %q", id, c)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate cert id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}
