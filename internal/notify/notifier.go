// Package notify delivers best-effort usage-accounting notifications when a
// user's interaction history contributes to a recommendation. Delivery is
// at-most-once: failures are logged and discarded, never retried, and never
// surfaced to the request that triggered them.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Notifier sends a usage-accounting event for a contributing user's wallet.
type Notifier interface {
	NotifyUsage(ctx context.Context, walletAddress string) error
	Close() error
}

// Config selects and configures a notifier backend.
type Config struct {
	// Backend is one of "none", "http", "kafka". Empty means none.
	Backend string
	// Endpoint is the accounting URL for the http backend.
	Endpoint string
	// Brokers, Topic, ClientID configure the kafka backend.
	Brokers  []string
	Topic    string
	ClientID string
}

// New creates a notifier for the configured backend.
func New(cfg Config, logger *zap.Logger) (Notifier, error) {
	switch cfg.Backend {
	case "", "none":
		return NopNotifier{}, nil
	case "http":
		return NewHTTPNotifier(cfg.Endpoint)
	case "kafka":
		return NewKafkaNotifier(cfg.Brokers, cfg.Topic, cfg.ClientID, logger)
	default:
		return nil, fmt.Errorf("unknown notify backend: %s (supported: none, http, kafka)", cfg.Backend)
	}
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// NotifyUsage does nothing.
func (NopNotifier) NotifyUsage(context.Context, string) error { return nil }

// Close does nothing.
func (NopNotifier) Close() error { return nil }
