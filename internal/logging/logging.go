// Package logging builds the gateway's zap logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "sesame-gateway"

// Level maps the 1..5 verbosity scale (fatal, error, warning, info, debug)
// onto zap levels. Values above 5 are treated as debug, values below 1 as
// fatal.
func Level(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 1:
		return zapcore.FatalLevel
	case verbosity == 2:
		return zapcore.ErrorLevel
	case verbosity == 3:
		return zapcore.WarnLevel
	case verbosity == 4:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Options selects verbosity, encoding and destination.
type Options struct {
	Verbosity int
	Format    string // "json" (default) or "console"
	File      string // empty = stdout
}

// New creates a logger. JSON output uses ISO8601 timestamps under the
// "timestamp" key; console output uses zap's development encoder.
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Sampling = nil
	}
	config.Level = zap.NewAtomicLevelAt(Level(opts.Verbosity))

	out := "stdout"
	if opts.File != "" {
		out = opts.File
	}
	config.OutputPaths = []string{out}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	logger = logger.With(zap.String("service_name", ServiceName))
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		logger = logger.With(zap.String("hostname", hostname))
	}
	return logger, nil
}
