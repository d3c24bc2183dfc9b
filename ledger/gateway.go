package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trustlayer/trustlayer/fingerprint"
)

const defaultCallTimeout = 10 * time.Second

// GatewayConfig configures the connection to the ledger gateway.
type GatewayConfig struct {
	// URL is the base URL of the ledger gateway RPC service.
	URL string `yaml:"url"`
	// BearerToken authenticates this instance against the gateway.
	BearerToken string `yaml:"bearer_token"`
	// CallTimeout bounds every single RPC. Zero means the default.
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// GatewayClient implements Client over the HTTP JSON API of a ledger gateway.
// All transport failures and deadline expiries are surfaced as
// UnreachableError so callers can apply the fail-closed policy.
type GatewayClient struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// NewGatewayClient creates a GatewayClient for the passed GatewayConfig.
func NewGatewayClient(conf GatewayConfig) *GatewayClient {
	timeout := conf.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(conf.URL, "/"),
		token:   conf.BearerToken,
		timeout: timeout,
		http:    &http.Client{},
	}
}

type recordRequest struct {
	Identifier  string `json:"identifier"`
	Fingerprint string `json:"fingerprint"`
}

type gatewayError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Record anchors (identifier, fingerprint) on the ledger.
func (c *GatewayClient) Record(ctx context.Context, identifier, fp string) (*Receipt, error) {
	var out Receipt
	req := recordRequest{
		Identifier:  identifier,
		Fingerprint: fingerprint.Bytes32(fp),
	}
	if err := c.do(ctx, http.MethodPost, "/ledger/certificates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke marks the identifier revoked on the ledger.
func (c *GatewayClient) Revoke(ctx context.Context, identifier string) (*Receipt, error) {
	var out Receipt
	path := "/ledger/certificates/" + url.PathEscape(identifier) + "/revoke"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupByFingerprint returns the ledger entry for a fingerprint.
func (c *GatewayClient) LookupByFingerprint(ctx context.Context, fp string) (*Entry, error) {
	q := url.Values{}
	q.Set("fingerprint", fingerprint.Bytes32(fp))
	var out Entry
	err := c.do(ctx, http.MethodGet, "/ledger/certificates?"+q.Encode(), nil, &out)
	if err != nil {
		// An unknown fingerprint is a regular verdict input, not a failure.
		if IsNotFound(err) {
			return &Entry{Exists: false}, nil
		}
		return nil, err
	}
	return &out, nil
}

func (c *GatewayClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "ledger: failed to encode request")
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "ledger: failed to build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var ge gatewayError
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		msg := ge.Description
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusConflict:
			return DuplicateIdentifierError(msg)
		case http.StatusNotFound:
			return NotFoundError(msg)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return Unreachable(errors.New(msg))
		default:
			return RejectedError(msg)
		}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "ledger: failed to decode response")
	}
	return nil
}
