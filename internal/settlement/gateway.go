// Package settlement wraps the external transfer capability. Authorization
// is decided and committed before any of this runs; a failed or slow
// settlement never reverses a committed approval.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Transfer describes one approved movement of funds.
type Transfer struct {
	SourceWallet string `json:"source_wallet"`
	Recipient    string `json:"recipient"`
	Amount       int64  `json:"amount"`
	Memo         string `json:"memo"`
}

// Gateway executes an approved transfer and returns an opaque settlement
// reference. A timeout is a settlement failure, not a decision failure.
type Gateway interface {
	AttemptTransfer(ctx context.Context, t Transfer) (string, error)
}

// Noop is the authorization-only mode: no transfer backend is configured,
// approvals are recorded without a settlement reference.
type Noop struct{}

func (Noop) AttemptTransfer(ctx context.Context, t Transfer) (string, error) {
	return "", nil
}

// HTTPGateway calls an external transfer service.
type HTTPGateway struct {
	url    string
	client *http.Client
}

func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) AttemptTransfer(ctx context.Context, t Transfer) (string, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transfer call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transfer rejected: status %d", resp.StatusCode)
	}

	var out struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transfer response: %w", err)
	}
	return out.Reference, nil
}
