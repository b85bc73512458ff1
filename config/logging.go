package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logger from the log settings. An unparseable level
// falls back to info.
func (c LogConfig) NewLogger() *logrus.Logger {
	return c.newLogger(os.Stderr)
}

func (c LogConfig) newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if c.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// ConfigureStandardLogger applies the settings to logrus' package-level
// logger, which library packages log through.
func (c LogConfig) ConfigureStandardLogger() {
	std := logrus.StandardLogger()
	l := c.NewLogger()
	std.SetOutput(l.Out)
	std.SetFormatter(l.Formatter)
	std.SetLevel(l.Level)
}
