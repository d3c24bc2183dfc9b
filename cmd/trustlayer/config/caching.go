package config

import (
	"time"
)

// cachingConf configures the redis-backed verdict cache. When RedisAddr is
// empty an in-process cache is used.
type cachingConf struct {
	RedisAddr  string   `yaml:"redis_addr"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	RedisDB    int      `yaml:"redis_db"`
	Disabled   bool     `yaml:"disabled"`
	VerdictTTL Duration `yaml:"verdict_ttl"`
}

var defaultCachingConf = cachingConf{
	VerdictTTL: Duration(30 * time.Second),
}
