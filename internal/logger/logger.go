// Package logger wraps zap.Logger construction: zap.NewProduction for
// real runs, zap.NewNop() as the default for anything that takes a logger
// as an optional dependency.
package logger

import "go.uber.org/zap"

// New builds a production JSON logger, falling back to a Nop logger if
// zap's own default config fails to build; errors here are exceedingly
// rare environment issues, not something a CLI should fail to start over.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewDevelopment builds a human-readable console logger for local runs.
func NewDevelopment() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
