// Package webhook delivers tagging lifecycle events to an operator-configured
// HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/apphub/tagging-service/internal/domain/events"
)

// Config captures the webhook destination and payload shaping.
type Config struct {
	URL string
	// PayloadQuery optionally reshapes the envelope with a JMESPath
	// expression before delivery. Empty sends the envelope as-is.
	PayloadQuery string
	Timeout      time.Duration
	RetryLimit   int
	Client       *http.Client
}

// Client posts lifecycle envelopes to a webhook. Implements the notifier's
// WebhookSender port.
type Client struct {
	url        string
	query      string
	retryLimit int
	client     *http.Client
}

// NewClient builds a webhook client. The payload query, when present, is
// compiled up front so a bad expression fails at startup rather than on the
// first delivery.
func NewClient(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("webhook url is required")
	}
	query := strings.TrimSpace(cfg.PayloadQuery)
	if query != "" {
		if _, err := jmespath.Compile(query); err != nil {
			return nil, fmt.Errorf("invalid webhook payload query: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		url:        url,
		query:      query,
		retryLimit: retries,
		client:     hc,
	}, nil
}

// Send delivers one envelope, retrying per the configured limit with linear
// backoff. The caller treats any returned error as log-and-suppress.
func (c *Client) Send(ctx context.Context, envelope events.Outbound) error {
	body, err := c.deriveBody(envelope)
	if err != nil {
		return err
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

// deriveBody serializes the envelope, optionally reshaped by the payload
// query. The query runs over the JSON form of the envelope so field names
// match what the wire would carry.
func (c *Client) deriveBody(envelope events.Outbound) ([]byte, error) {
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}
	if c.query == "" {
		return body, nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode envelope for payload query: %w", err)
	}
	shaped, err := jmespath.Search(c.query, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate webhook payload query: %w", err)
	}
	out, err := json.Marshal(shaped)
	if err != nil {
		return nil, fmt.Errorf("encode shaped webhook payload: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}
	return nil
}
