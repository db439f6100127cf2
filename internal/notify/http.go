package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPNotifier posts usage events to the accounting service. Requests use the
// client's default timeout only; callers are expected to fire these off the
// response path.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPNotifier creates a notifier posting to endpoint.
func NewHTTPNotifier(endpoint string) (*HTTPNotifier, error) {
	if endpoint == "" {
		return nil, errors.New("notify endpoint is empty")
	}
	return &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type usageEvent struct {
	WalletAddress string `json:"walletAddress"`
}

// NotifyUsage posts {"walletAddress": ...} to the accounting endpoint.
func (n *HTTPNotifier) NotifyUsage(ctx context.Context, walletAddress string) error {
	body, err := json.Marshal(usageEvent{WalletAddress: walletAddress})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("accounting service returned %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op for HTTPNotifier.
func (n *HTTPNotifier) Close() error { return nil }
