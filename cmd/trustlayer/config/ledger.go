package config

import (
	"time"

	"github.com/pkg/errors"
)

// ledgerConf configures the gateway to the external ledger.
//
// YAML example:
//
//	ledger:
//	  gateway_url: https://ledger-gateway.example.com
//	  bearer_token: secret
//	  call_timeout: 10s
//	  verify_base_url: https://certs.example.com
type ledgerConf struct {
	GatewayURL    string   `yaml:"gateway_url"`
	BearerToken   string   `yaml:"bearer_token"`
	CallTimeout   Duration `yaml:"call_timeout"`
	// VerifyBaseURL is the public base URL embedded in QR codes
	VerifyBaseURL string   `yaml:"verify_base_url"`
}

func (c *ledgerConf) validate() error {
	if c.GatewayURL == "" {
		return errors.New("error in ledger conf: gateway_url must be specified")
	}
	if c.VerifyBaseURL == "" {
		return errors.New("error in ledger conf: verify_base_url must be specified")
	}
	return nil
}

var defaultLedgerConf = ledgerConf{
	CallTimeout: Duration(10 * time.Second),
}
