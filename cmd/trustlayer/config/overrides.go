package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trustlayer/trustlayer/storage/model"
)

// ApplyStoredSettings overlays runtime settings kept in the registry's
// key-value store onto the loaded config. Settings are written with
// `tlcli setting set` and take precedence over the config file.
func ApplyStoredSettings(kv model.KeyValueStore, c *Config) error {
	var ttl string
	found, err := kv.GetAs(model.KeyValueScopeVerification, model.KeyValueKeyVerdictCacheTTL, &ttl)
	if err != nil {
		return errors.Wrap(err, "could not read stored verdict cache ttl")
	}
	if found {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return errors.Wrap(err, "invalid stored verdict cache ttl")
		}
		c.Caching.VerdictTTL = Duration(d)
	}

	var baseURL string
	found, err = kv.GetAs(model.KeyValueScopeIssuance, model.KeyValueKeyVerifyBaseURL, &baseURL)
	if err != nil {
		return errors.Wrap(err, "could not read stored verify base url")
	}
	if found && baseURL != "" {
		c.Ledger.VerifyBaseURL = baseURL
	}
	return nil
}
