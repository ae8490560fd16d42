package models

import "time"

// Workspace is a tenant workspace record, the unit a paas-ws-* namespace
// and a Helm release belong to. The operator only reads these; they are
// administered by the platform frontend.
type Workspace struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Namespace string    `json:"namespace" db:"namespace"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Home is a smart-home deployment (a Home Assistant instance) inside a
// workspace, reachable through a dedicated Cloudflare tunnel.
type Home struct {
	ID          string    `json:"id" db:"id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Name        string    `json:"name" db:"name"`
	ReleaseName string    `json:"release_name" db:"release_name"`
	TunnelID    string    `json:"tunnel_id,omitempty" db:"tunnel_id"`
	DNSRecordID string    `json:"dns_record_id,omitempty" db:"dns_record_id"`
	Hostname    string    `json:"hostname,omitempty" db:"hostname"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
