// Package logging builds the zap loggers used by the CLI and the server.
package logging

import (
	"sort"

	"go.uber.org/zap"
)

// Config holds logging configuration
type Config struct {
	Level       string            `json:"level" yaml:"level"`
	Format      string            `json:"format" yaml:"format"` // "json" or "console"
	OutputPath  string            `json:"output_path" yaml:"output_path"`
	Fields      map[string]string `json:"fields" yaml:"fields"`
	Development bool              `json:"development" yaml:"development"`
}

// New creates a logger from config. An unparsable level falls back to info.
func New(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if config.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(config.Fields))
	for k := range config.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.String(k, config.Fields[k]))
	}
	return logger.With(fields...), nil
}

// NewDefault creates a JSON logger at info level tagged with service.
func NewDefault(service string) *zap.Logger {
	logger, err := New(Config{
		Level:  "info",
		Format: "json",
		Fields: map[string]string{"service": service},
	})
	if err != nil {
		// Fallback to basic logger
		zapLogger, _ := zap.NewProduction()
		return zapLogger.With(zap.String("service", service))
	}
	return logger
}

// NewCLI creates a console logger on stderr for command-line use.
func NewCLI(level string) (*zap.Logger, error) {
	if level == "" {
		level = "warn"
	}
	return New(Config{
		Level:      level,
		Format:     "console",
		OutputPath: "stderr",
	})
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
