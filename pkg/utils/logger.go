package utils

import "go.uber.org/zap"

// NewLogger returns the zap logger used across the service. When debug is true
// (config debug flag or the server --debug flag), uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info
// level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
