package cloudflare

import "encoding/json"

// TunnelRoute is one ingress rule of a tunnel configuration. The rule list
// always ends with exactly one catch-all rule (service "http_status:404",
// no hostname); every mutating operation preserves that invariant.
type TunnelRoute struct {
	Hostname string `json:"hostname,omitempty"`
	Service  string `json:"service"`
	Path     string `json:"path,omitempty"`
}

const catchAllService = "http_status:404"

func catchAllRoute() TunnelRoute {
	return TunnelRoute{Service: catchAllService}
}

// TunnelInfo identifies a dedicated per-tenant tunnel.
type TunnelInfo struct {
	ID   string `json:"tunnel_id"`
	Name string `json:"tunnel_name"`
}

// TunnelConnection is one live cloudflared connection of a tunnel.
type TunnelConnection struct {
	ID       string `json:"id"`
	ColoName string `json:"colo_name"`
	OriginIP string `json:"origin_ip"`
	OpenedAt string `json:"opened_at"`
}

// TunnelStatus reports the tunnel health and its live connections.
type TunnelStatus struct {
	Status      string             `json:"status"`
	Connections []TunnelConnection `json:"connections"`
}

// apiResponse is the Cloudflare API v4 envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiMessage    `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type tunnelConfig struct {
	Ingress []TunnelRoute `json:"ingress"`
}

type tunnelConfigResult struct {
	Config tunnelConfig `json:"config"`
}

type tunnelResult struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Status string             `json:"status"`
	Conns  []TunnelConnection `json:"connections"`
}

type dnsRecord struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
}
