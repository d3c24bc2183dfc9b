package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/trustlayer/trustlayer/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  internal:
//	    dir: /var/log/trustlayer
//	    stderr: false
//	    level: INFO
//	  banner:
//	    version: true
type loggingConf struct {
	Internal internalLoggerConf `yaml:"internal"`
	Banner   bannerConf         `yaml:"banner"`
}

// bannerConf controls whether the version banner is printed on startup.
type bannerConf struct {
	Version bool `yaml:"version"`
}

// internalLoggerConf configures application-internal logging.
type internalLoggerConf struct {
	logger.Conf `yaml:",inline"`
}

func checkLoggingDirExists(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	return checkLoggingDirExists(log.Internal.Dir)
}

var defaultLoggingConf = loggingConf{
	Banner: bannerConf{
		Version: true,
	},
	Internal: internalLoggerConf{
		Conf: logger.Conf{
			Level: "INFO",
		},
	},
}
