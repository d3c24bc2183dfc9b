package config

import (
	"encoding/json"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/trustlayer/trustlayer/storage/model"
)

type memKVStore struct {
	values map[string]datatypes.JSON
}

func newMemKVStore() *memKVStore {
	return &memKVStore{values: make(map[string]datatypes.JSON)}
}

func (s *memKVStore) Get(scope, key string) (datatypes.JSON, error) {
	return s.values[scope+"/"+key], nil
}

func (s *memKVStore) Set(scope, key string, value datatypes.JSON) error {
	s.values[scope+"/"+key] = value
	return nil
}

func (s *memKVStore) Delete(scope, key string) error {
	delete(s.values, scope+"/"+key)
	return nil
}

func (s *memKVStore) GetAs(scope, key string, out any) (bool, error) {
	raw, ok := s.values[scope+"/"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (s *memKVStore) SetAny(scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(scope, key, b)
}

func TestApplyStoredSettings(t *testing.T) {
	kv := newMemKVStore()
	if err := kv.SetAny(
		model.KeyValueScopeVerification, model.KeyValueKeyVerdictCacheTTL, "45s",
	); err != nil {
		t.Fatalf("SetAny failed: %v", err)
	}
	if err := kv.SetAny(
		model.KeyValueScopeIssuance, model.KeyValueKeyVerifyBaseURL, "https://certs.example.org",
	); err != nil {
		t.Fatalf("SetAny failed: %v", err)
	}

	c := Config{}
	c.Caching.VerdictTTL = Duration(30 * time.Second)
	c.Ledger.VerifyBaseURL = "https://old.example.org"
	if err := ApplyStoredSettings(kv, &c); err != nil {
		t.Fatalf("ApplyStoredSettings failed: %v", err)
	}
	if c.Caching.VerdictTTL.Duration() != 45*time.Second {
		t.Fatalf("expected stored ttl to win, got %v", c.Caching.VerdictTTL.Duration())
	}
	if c.Ledger.VerifyBaseURL != "https://certs.example.org" {
		t.Fatalf("expected stored base url to win, got %s", c.Ledger.VerifyBaseURL)
	}
}

func TestApplyStoredSettingsKeepsConfigWhenUnset(t *testing.T) {
	c := Config{}
	c.Caching.VerdictTTL = Duration(30 * time.Second)
	c.Ledger.VerifyBaseURL = "https://certs.example.org"
	if err := ApplyStoredSettings(newMemKVStore(), &c); err != nil {
		t.Fatalf("ApplyStoredSettings failed: %v", err)
	}
	if c.Caching.VerdictTTL.Duration() != 30*time.Second {
		t.Fatalf("ttl changed without a stored setting: %v", c.Caching.VerdictTTL.Duration())
	}
	if c.Ledger.VerifyBaseURL != "https://certs.example.org" {
		t.Fatalf("base url changed without a stored setting: %s", c.Ledger.VerifyBaseURL)
	}
}

func TestApplyStoredSettingsRejectsBadDuration(t *testing.T) {
	kv := newMemKVStore()
	if err := kv.SetAny(
		model.KeyValueScopeVerification, model.KeyValueKeyVerdictCacheTTL, "soon",
	); err != nil {
		t.Fatalf("SetAny failed: %v", err)
	}
	if err := ApplyStoredSettings(kv, &Config{}); err == nil {
		t.Fatal("expected an error for a malformed stored duration")
	}
}
