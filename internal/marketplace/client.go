// Package marketplace contains the thin REST wrappers that push accepted
// price changes to the four marketplace pricing APIs, together with each
// marketplace's typed sheet column mapping.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
	"github.com/fairyhunter13/marketplace-price-sync/internal/obs"
)

// ErrRejected reports that the marketplace refused the pushed changes. The
// caller routes the changed rows through the conflict merger; any other
// push error fails the cycle instead.
var ErrRejected = errors.New("push rejected by marketplace")

// Pusher sends one marketplace's accepted changes.
type Pusher interface {
	// Name is the marketplace identifier used in logs and table names.
	Name() string
	// Mapping names the sheet columns this marketplace uses.
	Mapping() model.FieldMapping
	// KeyField is the column the conflict merger joins on.
	KeyField() string
	// Push submits the changed rows. ErrRejected means the API refused
	// them; other errors are transport failures.
	Push(ctx context.Context, rows []model.Row) error
}

// Client is the HTTP plumbing shared by all pushers.
type Client struct {
	hc    *http.Client
	log   *slog.Logger
	debug bool
}

// NewClient builds the shared client. In debug mode pushers log the payload
// they would send and report the push as rejected without calling the API.
func NewClient(timeout time.Duration, debug bool, log *slog.Logger) *Client {
	if log == nil {
		log = obs.Logger
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}, log: log, debug: debug}
}

// postJSON sends the payload and decodes the response body into out (when
// out is non-nil and the body is JSON). A non-200 status maps to
// ErrRejected with the body attached.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("push_http_error", "url", url, "status", resp.StatusCode, "body", string(raw))
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.log.Warn("push_bad_response", "url", url, "body", string(raw))
			return fmt.Errorf("%w: unparseable response", ErrRejected)
		}
	}
	return nil
}

// debugSkip implements the debug short-circuit shared by all pushers.
func (c *Client) debugSkip(name string, payload any) error {
	raw, _ := json.Marshal(payload)
	c.log.Warn("push_debug_skip", "marketplace", name, "payload", string(raw))
	return fmt.Errorf("%w: debug mode", ErrRejected)
}
