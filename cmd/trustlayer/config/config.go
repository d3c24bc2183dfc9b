// Package config loads and validates the yaml configuration of the
// trustlayer server.
package config

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/trustlayer/trustlayer"
)

// Config holds the full server configuration
type Config struct {
	Server  trustlayer.ServerConf `yaml:"server"`
	Logging loggingConf           `yaml:"logging"`
	Storage storageConf           `yaml:"storage"`
	Ledger  ledgerConf            `yaml:"ledger"`
	Caching cachingConf           `yaml:"caching"`
	API     apiConf               `yaml:"api"`
}

var conf *Config

// Get returns the loaded Config
func Get() Config {
	if conf == nil {
		log.Fatal("config not loaded")
	}
	return *conf
}

// defaultConfigFiles are the locations checked when no config file is passed
var defaultConfigFiles = []string{
	"config.yaml",
	"/etc/trustlayer/config.yaml",
}

// Load loads the config from the passed file, or from the default locations
// when file is empty. Errors are fatal.
func Load(file string) {
	c := Config{
		Server: trustlayer.ServerConf{
			Port: 8080,
		},
		Logging: defaultLoggingConf,
		Storage: defaultStorageConf,
		Ledger:  defaultLedgerConf,
		Caching: defaultCachingConf,
		API:     defaultAPIConf,
	}
	data, usedFile, err := readConfigFile(file)
	if err != nil {
		log.WithError(err).Fatal("could not read config file")
	}
	if err = yaml.Unmarshal(data, &c); err != nil {
		log.WithError(err).WithField("file", usedFile).Fatal("could not parse config file")
	}
	if err = c.validate(); err != nil {
		log.WithError(err).WithField("file", usedFile).Fatal("invalid config")
	}
	conf = &c
}

func readConfigFile(file string) ([]byte, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		return data, file, err
	}
	for _, f := range defaultConfigFiles {
		data, err := os.ReadFile(f)
		if err == nil {
			return data, f, nil
		}
	}
	return nil, "", os.ErrNotExist
}

func (c *Config) validate() error {
	if err := c.Logging.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	return c.Ledger.validate()
}
