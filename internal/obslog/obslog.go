// Package obslog builds the per-component zap.Logger instances used across
// the core: one base logger configured at process startup, then a
// `component` field attached per package (gateway, projector, submission,
// synthesis, mongostore).
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the base logger's behavior.
type Config struct {
	// Development enables human-readable console output and debug level;
	// production uses JSON output at info level.
	Development bool
}

// New builds the base logger from which all component loggers derive.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Development {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapCfg.Build()
	}
	return zap.NewProduction()
}

// Component returns a child logger tagged with the given component name.
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("component", name))
}
