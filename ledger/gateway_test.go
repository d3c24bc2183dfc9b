package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGatewayRecord(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/ledger/certificates" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("unexpected auth header: %q", got)
				}
				var req recordRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if req.Identifier != "CERT-AB12CD34" || req.Fingerprint != "0xdeadbeef" {
					t.Errorf("unexpected payload: %+v", req)
				}
				_ = json.NewEncoder(w).Encode(Receipt{TransactionRef: "0xtx1", BlockNumber: 7})
			},
		),
	)
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL, BearerToken: "secret"})
	receipt, err := c.Record(context.Background(), "CERT-AB12CD34", "deadbeef")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if receipt.TransactionRef != "0xtx1" || receipt.BlockNumber != 7 {
		t.Errorf("unexpected receipt: %+v", receipt)
	}
}

func TestGatewayRecordDuplicate(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(
					gatewayError{Error: "duplicate", Description: "identifier already recorded"},
				)
			},
		),
	)
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL})
	_, err := c.Record(context.Background(), "CERT-AB12CD34", "deadbeef")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRejected(err) {
		t.Errorf("expected rejection, got %v", err)
	}
	var d DuplicateIdentifierError
	if !errors.As(err, &d) {
		t.Errorf("expected DuplicateIdentifierError, got %T", err)
	}
}

func TestGatewayLookupUnknownFingerprint(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		),
	)
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL})
	entry, err := c.LookupByFingerprint(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("lookup of unknown fingerprint must not fail: %v", err)
	}
	if entry.Exists {
		t.Error("unknown fingerprint reported as existing")
	}
}

func TestGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewGatewayClient(GatewayConfig{URL: srv.URL})
	_, err := c.LookupByFingerprint(context.Background(), "deadbeef")
	if !IsUnreachable(err) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
}

func TestGatewayTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) {
				<-block
			},
		),
	)
	defer srv.Close()
	defer close(block)

	c := NewGatewayClient(GatewayConfig{URL: srv.URL, CallTimeout: 20 * time.Millisecond})
	_, err := c.Revoke(context.Background(), "CERT-AB12CD34")
	if !IsUnreachable(err) {
		t.Fatalf("expected UnreachableError on timeout, got %v", err)
	}
}

func TestGatewayUnavailableStatus(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		),
	)
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL})
	_, err := c.LookupByFingerprint(context.Background(), "deadbeef")
	if !IsUnreachable(err) {
		t.Fatalf("expected UnreachableError for 503, got %v", err)
	}
}
