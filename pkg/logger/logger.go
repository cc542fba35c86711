package logger

import (
	"go.uber.org/zap"
)

// New builds the production JSON logger used across the service.
func New() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		// zap's production config only fails on bad output paths; fall back
		// to a no-op logger rather than crashing before logging exists.
		return zap.NewNop()
	}
	return log
}
