// Package cloudflare manages ingress routes on a shared Cloudflare Tunnel
// and the lifecycle of dedicated per-tenant tunnels, via the Cloudflare API
// v4. When the integration is disabled in configuration, shared-route
// operations are no-ops so callers never need to branch.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/metrics"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

type Client struct {
	baseURL    string
	apiToken   string
	accountID  string
	tunnelID   string // shared tunnel for workspace ingress routes
	zoneID     string
	domain     string
	enabled    bool
	httpClient *http.Client
	log        *slog.Logger
}

type Options struct {
	APIToken  string
	AccountID string
	TunnelID  string
	ZoneID    string
	Domain    string
	Enabled   bool
	Timeout   time.Duration
}

func NewClient(opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiToken:   opts.APIToken,
		accountID:  opts.AccountID,
		tunnelID:   opts.TunnelID,
		zoneID:     opts.ZoneID,
		domain:     opts.Domain,
		enabled:    opts.Enabled,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Enabled reports whether the integration is configured.
func (c *Client) Enabled() bool { return c.enabled }

// Domain returns the zone apex used for tunnel hostnames.
func (c *Client) Domain() string { return c.domain }

// do performs one API call. Any HTTP status >= 400 or an envelope with
// success:false becomes a CloudflareError; on success the envelope result is
// decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal cloudflare request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build cloudflare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CloudflareAPICallsTotal.WithLabelValues("error").Inc()
		return &errdefs.CloudflareError{Message: err.Error(), StatusCode: 0}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.CloudflareAPICallsTotal.WithLabelValues("error").Inc()
		return &errdefs.CloudflareError{Message: "read response body: " + err.Error(), StatusCode: resp.StatusCode}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		metrics.CloudflareAPICallsTotal.WithLabelValues("error").Inc()
		return &errdefs.CloudflareError{
			Message:    fmt.Sprintf("malformed response: %s", truncate(string(raw), 200)),
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		metrics.CloudflareAPICallsTotal.WithLabelValues("error").Inc()
		return &errdefs.CloudflareError{
			Message:    joinAPIErrors(envelope.Errors),
			StatusCode: resp.StatusCode,
		}
	}

	metrics.CloudflareAPICallsTotal.WithLabelValues("success").Inc()
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return &errdefs.CloudflareError{
				Message:    "decode result: " + err.Error(),
				StatusCode: resp.StatusCode,
			}
		}
	}
	return nil
}

func joinAPIErrors(errs []apiMessage) string {
	if len(errs) == 0 {
		return "request failed"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%d: %s", e.Code, e.Message))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
