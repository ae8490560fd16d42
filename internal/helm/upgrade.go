package helm

import (
	"context"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
)

// Upgrade runs `helm upgrade --output json`. Chart must be non-empty: Helm
// does not retain the original chart reference, so the caller resupplies it.
// Each successful upgrade creates a new revision; callers must not retry
// blindly after a partial failure without checking current state first.
func (m *Manager) Upgrade(ctx context.Context, req UpgradeRequest) (*ReleaseInfo, error) {
	if err := m.checkNamespace(req.Namespace); err != nil {
		return nil, err
	}
	if err := m.checkName(req.Name); err != nil {
		return nil, err
	}
	if req.Chart == "" {
		return nil, errdefs.Validationf("chart is required for upgrade: helm does not retain the original chart reference")
	}

	args := []string{"upgrade", req.Name, req.Chart, "--namespace", req.Namespace, "--output", "json"}
	if req.Version != "" {
		args = append(args, "--version", req.Version)
	}
	if req.ResetValues {
		args = append(args, "--reset-values")
	}
	if req.ReuseValues {
		args = append(args, "--reuse-values")
	}

	valuesFile, cleanup, err := writeValuesFile(req.Values)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	if valuesFile != "" {
		args = append(args, "--values", valuesFile)
	}

	res, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout)
	if err != nil {
		return nil, asNotFound(err, "release", req.Name)
	}

	var rel helmRelease
	if err := decodeJSON(res.Stdout, &rel); err != nil {
		return nil, err
	}
	info := rel.toReleaseInfo()
	m.log.Info("release upgraded", "namespace", info.Namespace, "name", info.Name, "revision", info.Revision)
	return info, nil
}
