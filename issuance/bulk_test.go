package issuance

import (
	"context"
	"strings"
	"testing"

	"github.com/trustlayer/trustlayer/fingerprint"
)

func TestBulkIssueIsolatesRowFailures(t *testing.T) {
	o, _, certs, _ := testOrchestrator(t)
	rows := []BulkRow{
		{SubjectName: "Alice", Course: "Go", Expiry: "2030-01-01"},
		{SubjectName: "", Course: "Go"},
		{SubjectName: "Bob", Course: "Go", Expiry: "not-a-date"},
		{SubjectName: "Carol", Course: "Go"},
	}

	report := o.BulkIssue(context.Background(), "issuer-1", rows)
	if report.Total != 4 || report.Succeeded != 2 || report.Failed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Outcomes) != 4 {
		t.Fatalf("every row must appear in the report, got %d outcomes", len(report.Outcomes))
	}
	for i, outcome := range report.Outcomes {
		if outcome.Row != i+1 {
			t.Fatalf("outcomes out of order: %+v", report.Outcomes)
		}
	}
	if report.Outcomes[1].Err == "" || report.Outcomes[2].Err == "" {
		t.Fatalf("malformed rows must carry an error: %+v", report.Outcomes)
	}
	if report.Outcomes[0].CertID == "" || report.Outcomes[3].CertID == "" {
		t.Fatalf("successful rows must carry a cert id: %+v", report.Outcomes)
	}
	if len(certs.byCertID) != 2 {
		t.Fatalf("expected 2 persisted certificates, got %d", len(certs.byCertID))
	}
}

func TestBulkIssueFingerprintReproducible(t *testing.T) {
	o, _, certs, _ := testOrchestrator(t)
	row := BulkRow{SubjectName: "Alice", Course: "Go", Expiry: "2030-01-01"}

	report := o.BulkIssue(context.Background(), "issuer-1", []BulkRow{row})
	if report.Succeeded != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	cert := certs.byCertID[report.Outcomes[0].CertID]
	if cert.Fingerprint != fingerprint.Fingerprint(rowContent(row)) {
		t.Fatal("the row's canonical content must reproduce the stored fingerprint")
	}
	if cert.ExpiresAt == nil || cert.ExpiresAt.Year() != 2030 {
		t.Fatalf("expiry not parsed: %+v", cert.ExpiresAt)
	}
}

func TestBulkIssueDuplicateRow(t *testing.T) {
	o, _, _, _ := testOrchestrator(t)
	row := BulkRow{SubjectName: "Alice", Course: "Go"}

	report := o.BulkIssue(context.Background(), "issuer-1", []BulkRow{row, row})
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("identical rows must collide on the fingerprint: %+v", report)
	}
}

func TestParseRows(t *testing.T) {
	csv := "subject_name,course,expiry\n" +
		"Alice,Go,2030-01-01\n" +
		"Bob,Rust\n" +
		"Carol,,\n"
	rows, err := ParseRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0] != (BulkRow{SubjectName: "Alice", Course: "Go", Expiry: "2030-01-01"}) {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1] != (BulkRow{SubjectName: "Bob", Course: "Rust"}) {
		t.Fatalf("short records must be padded: %+v", rows[1])
	}
}

func TestParseRowsBadHeader(t *testing.T) {
	if _, err := ParseRows(strings.NewReader("name,course\nAlice,Go\n")); err == nil {
		t.Fatal("ParseRows should reject an unexpected header")
	}
}
