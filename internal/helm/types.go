package helm

import "time"

// Status is a Helm release status as reported by the CLI.
type Status string

const (
	StatusDeployed        Status = "deployed"
	StatusFailed          Status = "failed"
	StatusPendingInstall  Status = "pending-install"
	StatusPendingUpgrade  Status = "pending-upgrade"
	StatusPendingRollback Status = "pending-rollback"
	StatusSuperseded      Status = "superseded"
	StatusUninstalled     Status = "uninstalled"
	StatusUninstalling    Status = "uninstalling"
	StatusUnknown         Status = "unknown"
)

// ReleaseInfo is a read-through projection of Helm's own state store,
// parsed from CLI JSON output. Never persisted locally.
type ReleaseInfo struct {
	Name        string                 `json:"name"`
	Namespace   string                 `json:"namespace"`
	Revision    int                    `json:"revision"`
	Status      Status                 `json:"status"`
	Chart       string                 `json:"chart"`
	AppVersion  string                 `json:"app_version"`
	Updated     time.Time              `json:"updated"`
	Description string                 `json:"description,omitempty"`
	Values      map[string]interface{} `json:"values,omitempty"`
}

// Revision is one entry of a release's history.
type Revision struct {
	Revision    int       `json:"revision"`
	Updated     time.Time `json:"updated"`
	Status      Status    `json:"status"`
	Chart       string    `json:"chart"`
	AppVersion  string    `json:"app_version"`
	Description string    `json:"description,omitempty"`
}

// InstallRequest describes a helm install invocation.
type InstallRequest struct {
	Namespace       string
	Name            string
	Chart           string
	Version         string
	Values          map[string]interface{}
	CreateNamespace bool
}

// UpgradeRequest describes a helm upgrade invocation. Chart is required:
// Helm does not retain the original chart reference, so callers must
// resupply it.
type UpgradeRequest struct {
	Namespace   string
	Name        string
	Chart       string
	Version     string
	Values      map[string]interface{}
	ResetValues bool
	ReuseValues bool
}
