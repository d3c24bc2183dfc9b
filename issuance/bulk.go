package issuance

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/trustlayer/trustlayer/storage/model"
)

// ExpiryLayout is the date format accepted for certificate expiry in bulk
// rows.
const ExpiryLayout = "2006-01-02"

// BulkRow is one certificate request within a batch. Expiry is the raw field
// value; it is validated per row so a malformed date fails only that row.
type BulkRow struct {
	SubjectName string
	Course      string
	Expiry      string
}

// RowOutcome records what happened to a single row.
type RowOutcome struct {
	Row    int    `json:"row"`
	CertID string `json:"cert_id,omitempty"`
	Err    string `json:"error,omitempty"`
}

// BulkReport is the complete result of a batch. Every row appears exactly
// once in Outcomes, in input order.
type BulkReport struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Outcomes  []RowOutcome `json:"outcomes"`
}

// BulkIssue issues certificates for all rows strictly sequentially. A failing
// row never aborts the batch; the report covers every row.
func (o *Orchestrator) BulkIssue(ctx context.Context, issuerID string, rows []BulkRow) *BulkReport {
	report := &BulkReport{
		Total:    len(rows),
		Outcomes: make([]RowOutcome, 0, len(rows)),
	}
	for i, row := range rows {
		outcome := RowOutcome{Row: i + 1}
		cert, err := o.issueRow(ctx, issuerID, row)
		if err != nil {
			outcome.Err = err.Error()
			report.Failed++
			log.WithError(err).WithFields(
				log.Fields{
					"issuer": issuerID,
					"row":    i + 1,
				},
			).Warn("bulk row failed")
		} else {
			outcome.CertID = cert.CertID
			report.Succeeded++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func (o *Orchestrator) issueRow(ctx context.Context, issuerID string, row BulkRow) (*model.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(row.SubjectName) == "" {
		return nil, errors.Errorf("subject_name is required")
	}
	meta := Meta{
		SubjectName: row.SubjectName,
		Course:      row.Course,
	}
	if row.Expiry != "" {
		expiry, err := time.Parse(ExpiryLayout, row.Expiry)
		if err != nil {
			return nil, errors.Errorf("invalid expiry %q, expected %s", row.Expiry, ExpiryLayout)
		}
		meta.ExpiresAt = &expiry
	}
	return o.Issue(ctx, rowContent(row), issuerID, meta)
}

// rowContent is the canonical byte rendering of a row. Verifying the same
// field values later reproduces the fingerprint.
func rowContent(row BulkRow) []byte {
	return []byte(row.SubjectName + "\n" + row.Course + "\n" + row.Expiry)
}

// csvHeader is the required header of uploaded batch files.
var csvHeader = []string{"subject_name", "course", "expiry"}

// ParseRows reads a batch CSV with the header subject_name,course,expiry.
// Short records are padded with empty fields; structural csv errors fail the
// whole parse since row boundaries are no longer trustworthy.
func ParseRows(r io.Reader) ([]BulkRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "could not read csv header")
	}
	if !headerMatches(header) {
		return nil, errors.Errorf("unexpected csv header %v, expected %v", header, csvHeader)
	}

	var rows []BulkRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not read csv record")
		}
		for len(record) < len(csvHeader) {
			record = append(record, "")
		}
		rows = append(
			rows, BulkRow{
				SubjectName: record[0],
				Course:      record[1],
				Expiry:      record[2],
			},
		)
	}
	return rows, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, h := range header {
		if !strings.EqualFold(strings.TrimSpace(h), csvHeader[i]) {
			return false
		}
	}
	return true
}
