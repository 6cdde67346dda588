// Package logging builds the zap logger shared by the server and the CLIs.
package logging

import (
	"go.uber.org/zap"
)

// New returns a production logger for the "production" environment and a
// development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// MustNew is New for program start-up, falling back to a no-op logger.
func MustNew(env string) *zap.Logger {
	logger, err := New(env)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
