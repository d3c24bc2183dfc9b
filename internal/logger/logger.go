// Package logger initializes the application-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Conf holds configuration related to logging
type Conf struct {
	// Level sets the verbosity (e.g. DEBUG, INFO, WARN, ERROR)
	Level string `yaml:"level"`
	// Dir is the directory log files are written to
	Dir string `yaml:"dir"`
	// StdErr also writes log output to stderr
	StdErr bool `yaml:"stderr"`
}

const logFileName = "trustlayer.log"

// Init configures the global logrus logger from the passed Conf.
func Init(c Conf) {
	log.SetLevel(parseLevel(c.Level))
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)

	var outputs []io.Writer
	if c.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(c.Dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644,
		)
		if err != nil {
			log.WithError(err).Error("could not open log file, falling back to stderr")
		} else {
			outputs = append(outputs, f)
		}
	}
	if c.StdErr || len(outputs) == 0 {
		outputs = append(outputs, os.Stderr)
	}
	if len(outputs) == 1 {
		log.SetOutput(outputs[0])
	} else {
		log.SetOutput(io.MultiWriter(outputs...))
	}
}

func parseLevel(level string) log.Level {
	if level == "" {
		return log.InfoLevel
	}
	switch strings.ToUpper(level) {
	case "TRACE":
		return log.TraceLevel
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		log.WithField("level", level).Warn("unknown log level, using INFO")
		return log.InfoLevel
	}
}
