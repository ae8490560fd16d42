package cloudflare

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/validate"
)

// Dedicated per-tenant tunnel lifecycle. Unlike shared routes these are not
// silent no-ops when disabled: a tenant asking for a tunnel with the
// integration off is a caller error.

func (c *Client) tunnelPath(parts ...string) string {
	p := fmt.Sprintf("/accounts/%s/cfd_tunnel", c.accountID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *Client) requireEnabled() error {
	if !c.enabled {
		return errdefs.Validationf("cloudflare integration is disabled")
	}
	return nil
}

// CreateTunnel creates a remotely-managed tunnel.
func (c *Client) CreateTunnel(ctx context.Context, name string) (*TunnelInfo, error) {
	if err := c.requireEnabled(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errdefs.Validationf("tunnel name is required")
	}

	body := map[string]string{"name": name, "config_src": "cloudflare"}
	var result tunnelResult
	if err := c.do(ctx, http.MethodPost, c.tunnelPath(), body, &result); err != nil {
		return nil, err
	}
	c.log.Info("tunnel created", "tunnel_id", result.ID, "name", result.Name)
	return &TunnelInfo{ID: result.ID, Name: result.Name}, nil
}

// GetTunnelToken returns the connector token used by cloudflared sidecars.
func (c *Client) GetTunnelToken(ctx context.Context, tunnelID string) (string, error) {
	if err := c.requireEnabled(); err != nil {
		return "", err
	}
	var token string
	if err := c.do(ctx, http.MethodGet, c.tunnelPath(tunnelID, "token"), nil, &token); err != nil {
		return "", err
	}
	return token, nil
}

// ConfigureTunnel sets the tunnel's ingress rules to route hostname to
// serviceURL, ending in the standard catch-all.
func (c *Client) ConfigureTunnel(ctx context.Context, tunnelID, hostname, serviceURL string) error {
	if err := c.requireEnabled(); err != nil {
		return err
	}
	if hostname == "" || serviceURL == "" {
		return errdefs.Validationf("hostname and service_url are required")
	}

	rules := []TunnelRoute{
		{Hostname: hostname, Service: serviceURL},
		catchAllRoute(),
	}
	body := map[string]tunnelConfig{"config": {Ingress: rules}}
	if err := c.do(ctx, http.MethodPut, c.tunnelPath(tunnelID, "configurations"), body, nil); err != nil {
		return err
	}
	c.log.Info("tunnel configured", "tunnel_id", tunnelID, "hostname", hostname)
	return nil
}

// GetTunnelStatus reports the tunnel state and its live connections.
func (c *Client) GetTunnelStatus(ctx context.Context, tunnelID string) (*TunnelStatus, error) {
	if err := c.requireEnabled(); err != nil {
		return nil, err
	}
	var result tunnelResult
	if err := c.do(ctx, http.MethodGet, c.tunnelPath(tunnelID), nil, &result); err != nil {
		return nil, err
	}
	status := result.Status
	if status == "" {
		status = "inactive"
	}
	conns := result.Conns
	if conns == nil {
		conns = []TunnelConnection{}
	}
	return &TunnelStatus{Status: status, Connections: conns}, nil
}

// DeleteTunnel removes a tunnel. DNS records pointing at it are cleaned up
// first; the delete itself cascades to drop live connections.
func (c *Client) DeleteTunnel(ctx context.Context, tunnelID string) error {
	if err := c.requireEnabled(); err != nil {
		return err
	}

	if err := c.deleteTunnelDNS(ctx, tunnelID); err != nil {
		// DNS cleanup is best-effort; a stale record is manually fixable.
		c.log.Warn("tunnel dns cleanup failed", "tunnel_id", tunnelID, "error", err)
	}

	path := c.tunnelPath(tunnelID) + "?cascade=true"
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.log.Info("tunnel deleted", "tunnel_id", tunnelID)
	return nil
}

// tunnelCNAME is the DNS target Cloudflare assigns to a tunnel.
func tunnelCNAME(tunnelID string) string {
	return tunnelID + ".cfargotunnel.com"
}

func (c *Client) deleteTunnelDNS(ctx context.Context, tunnelID string) error {
	query := url.Values{}
	query.Set("type", "CNAME")
	query.Set("content", tunnelCNAME(tunnelID))
	path := fmt.Sprintf("/zones/%s/dns_records?%s", c.zoneID, query.Encode())

	var records []dnsRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return err
	}
	for _, rec := range records {
		delPath := fmt.Sprintf("/zones/%s/dns_records/%s", c.zoneID, rec.ID)
		if err := c.do(ctx, http.MethodDelete, delPath, nil, nil); err != nil {
			return err
		}
		c.log.Info("dns record deleted", "record_id", rec.ID, "name", rec.Name)
	}
	return nil
}

// CreateDNSRecordForTunnel creates a proxied CNAME for subdomain pointing at
// the tunnel. Callers treat failure as a warning: tunnel provisioning still
// succeeds with a null dns_record_id because DNS is manually fixable.
func (c *Client) CreateDNSRecordForTunnel(ctx context.Context, subdomain, tunnelID string) (string, error) {
	if err := c.requireEnabled(); err != nil {
		return "", err
	}
	if !validate.Subdomain(subdomain) {
		return "", errdefs.Validationf("invalid subdomain %q", subdomain)
	}

	body := dnsRecord{
		Type:    "CNAME",
		Name:    c.Hostname(subdomain),
		Content: tunnelCNAME(tunnelID),
		Proxied: true,
	}
	var result dnsRecord
	path := fmt.Sprintf("/zones/%s/dns_records", c.zoneID)
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return "", err
	}
	c.log.Info("dns record created", "record_id", result.ID, "name", result.Name)
	return result.ID, nil
}
