package cloudflare

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/validate"
)

// Shared-tunnel ingress routing. The update path is read-modify-write on the
// tunnel's remote config: concurrent writers are last-writer-wins. Accepted
// as a known limitation — route changes are low-frequency admin actions.

func (c *Client) sharedConfigPath() string {
	return fmt.Sprintf("/accounts/%s/cfd_tunnel/%s/configurations", c.accountID, c.tunnelID)
}

// GetConfig returns the shared tunnel's full ingress rule list.
func (c *Client) GetConfig(ctx context.Context) ([]TunnelRoute, error) {
	if !c.enabled {
		return nil, nil
	}
	var result tunnelConfigResult
	if err := c.do(ctx, http.MethodGet, c.sharedConfigPath(), nil, &result); err != nil {
		return nil, err
	}
	return result.Config.Ingress, nil
}

// UpdateConfig replaces the shared tunnel's ingress rules. Rules without a
// hostname are dropped and a single catch-all is re-appended, so the list
// always ends with exactly one catch-all regardless of input.
func (c *Client) UpdateConfig(ctx context.Context, rules []TunnelRoute) error {
	if !c.enabled {
		return nil
	}
	body := map[string]tunnelConfig{"config": {Ingress: normalizeRules(rules)}}
	return c.do(ctx, http.MethodPut, c.sharedConfigPath(), body, nil)
}

// normalizeRules enforces the catch-all invariant.
func normalizeRules(rules []TunnelRoute) []TunnelRoute {
	out := make([]TunnelRoute, 0, len(rules)+1)
	for _, r := range rules {
		if r.Hostname == "" {
			continue
		}
		out = append(out, r)
	}
	return append(out, catchAllRoute())
}

// ListRoutes returns the shared tunnel's routes without the catch-all rule.
func (c *Client) ListRoutes(ctx context.Context) ([]TunnelRoute, error) {
	if !c.enabled {
		return nil, nil
	}
	rules, err := c.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TunnelRoute, 0, len(rules))
	for _, r := range rules {
		if r.Hostname != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateRoute upserts a route by hostname (subdomain under the configured
// domain) pointing at serviceURL.
func (c *Client) CreateRoute(ctx context.Context, subdomain, serviceURL, path string) (*TunnelRoute, error) {
	if !c.enabled {
		return nil, nil
	}
	if !validate.Subdomain(subdomain) {
		return nil, errdefs.Validationf("invalid subdomain %q", subdomain)
	}
	if serviceURL == "" {
		return nil, errdefs.Validationf("service_url is required")
	}

	hostname := c.Hostname(subdomain)
	route := TunnelRoute{Hostname: hostname, Service: serviceURL, Path: path}

	rules, err := c.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i, r := range rules {
		if r.Hostname == hostname {
			rules[i] = route
			replaced = true
			break
		}
	}
	if !replaced {
		rules = append(rules, route)
	}
	if err := c.UpdateConfig(ctx, rules); err != nil {
		return nil, err
	}
	c.log.Info("tunnel route upserted", "hostname", hostname, "service", serviceURL)
	return &route, nil
}

// DeleteRoute removes the route for a subdomain. Deleting an absent route
// is not an error.
func (c *Client) DeleteRoute(ctx context.Context, subdomain string) error {
	if !c.enabled {
		return nil
	}
	if !validate.Subdomain(subdomain) {
		return errdefs.Validationf("invalid subdomain %q", subdomain)
	}

	hostname := c.Hostname(subdomain)
	rules, err := c.GetConfig(ctx)
	if err != nil {
		return err
	}
	kept := make([]TunnelRoute, 0, len(rules))
	for _, r := range rules {
		if r.Hostname == hostname {
			continue
		}
		kept = append(kept, r)
	}
	if err := c.UpdateConfig(ctx, kept); err != nil {
		return err
	}
	c.log.Info("tunnel route deleted", "hostname", hostname)
	return nil
}

// Hostname returns the fully qualified hostname for a subdomain.
func (c *Client) Hostname(subdomain string) string {
	return strings.ToLower(subdomain) + "." + c.domain
}
