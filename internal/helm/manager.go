// Package helm manages application releases by invoking the helm binary and
// parsing its JSON output. Every operation validates the target namespace
// against the configured workspace prefix before a subprocess is spawned.
package helm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/execx"
	"github.com/WOOWTECH/paas-operator/internal/pkg/validate"
)

type Manager struct {
	runner   execx.Runner
	binary   string
	nsPrefix string
	timeout  time.Duration
	log      *slog.Logger
}

func NewManager(runner execx.Runner, binary, nsPrefix string, timeout time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		runner:   runner,
		binary:   binary,
		nsPrefix: nsPrefix,
		timeout:  timeout,
		log:      log,
	}
}

// checkNamespace enforces the workspace prefix. Fails fast with a
// ValidationError before any subprocess runs.
func (m *Manager) checkNamespace(ns string) error {
	if !validate.WorkspaceNamespace(ns, m.nsPrefix) {
		return errdefs.Validationf("namespace %q must start with %q and be a valid DNS label", ns, m.nsPrefix)
	}
	return nil
}

func (m *Manager) checkName(name string) error {
	if !validate.Name(name) {
		return errdefs.Validationf("invalid release name %q", name)
	}
	return nil
}

// helmRelease mirrors the JSON object emitted by `helm install/upgrade -o json`.
type helmRelease struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Version   int    `json:"version"`
	Info      struct {
		Status       string `json:"status"`
		LastDeployed string `json:"last_deployed"`
		Description  string `json:"description"`
	} `json:"info"`
	Chart struct {
		Metadata struct {
			Name       string `json:"name"`
			Version    string `json:"version"`
			AppVersion string `json:"appVersion"`
		} `json:"metadata"`
	} `json:"chart"`
	Config map[string]interface{} `json:"config"`
}

func (r *helmRelease) toReleaseInfo() *ReleaseInfo {
	info := &ReleaseInfo{
		Name:        r.Name,
		Namespace:   r.Namespace,
		Revision:    r.Version,
		Status:      parseStatus(r.Info.Status),
		AppVersion:  r.Chart.Metadata.AppVersion,
		Updated:     parseHelmTime(r.Info.LastDeployed),
		Description: r.Info.Description,
		Values:      r.Config,
	}
	if r.Chart.Metadata.Name != "" {
		info.Chart = r.Chart.Metadata.Name + "-" + r.Chart.Metadata.Version
	}
	return info
}

// helmListItem mirrors one element of `helm list -o json`. Revision arrives
// as a string there, unlike the release object.
type helmListItem struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Revision   string `json:"revision"`
	Updated    string `json:"updated"`
	Status     string `json:"status"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
}

func (i *helmListItem) toReleaseInfo() *ReleaseInfo {
	rev, _ := strconv.Atoi(i.Revision)
	return &ReleaseInfo{
		Name:       i.Name,
		Namespace:  i.Namespace,
		Revision:   rev,
		Status:     parseStatus(i.Status),
		Chart:      i.Chart,
		AppVersion: i.AppVersion,
		Updated:    parseHelmTime(i.Updated),
	}
}

func parseStatus(s string) Status {
	switch Status(strings.ToLower(s)) {
	case StatusDeployed, StatusFailed, StatusPendingInstall, StatusPendingUpgrade,
		StatusPendingRollback, StatusSuperseded, StatusUninstalled, StatusUninstalling:
		return Status(strings.ToLower(s))
	default:
		return StatusUnknown
	}
}

// Helm emits RFC3339Nano in release objects and a Go-style timestamp
// ("2006-01-02 15:04:05.999999999 -0700 MST") in list/history output.
func parseHelmTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", s); err == nil {
		return t
	}
	return time.Time{}
}

func decodeJSON(out string, v interface{}) error {
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return &errdefs.ExecutionError{
			Message: fmt.Sprintf("malformed helm JSON output: %v", err),
		}
	}
	return nil
}

func notFoundRelease(name string) error {
	return &errdefs.NotFoundError{Resource: "release", Name: name}
}

// asNotFound rewrites an ExecutionError whose stderr mentions "not found"
// into a NotFoundError. Substring matching is fragile but it is the only
// signal the Helm CLI gives.
func asNotFound(err error, resource, name string) error {
	var execErr *errdefs.ExecutionError
	if errors.As(err, &execErr) && strings.Contains(strings.ToLower(execErr.Stderr), "not found") {
		return &errdefs.NotFoundError{Resource: resource, Name: name}
	}
	return err
}
