package helm

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
)

// Install runs `helm install --output json` and parses the result. Values,
// if present, are written to a temp YAML file so secrets never appear in
// argv or process listings; the file is removed on every exit path.
func (m *Manager) Install(ctx context.Context, req InstallRequest) (*ReleaseInfo, error) {
	if err := m.checkNamespace(req.Namespace); err != nil {
		return nil, err
	}
	if err := m.checkName(req.Name); err != nil {
		return nil, err
	}
	if req.Chart == "" {
		return nil, errdefs.Validationf("chart is required")
	}

	args := []string{"install", req.Name, req.Chart, "--namespace", req.Namespace, "--output", "json"}
	if req.CreateNamespace {
		args = append(args, "--create-namespace")
	}
	if req.Version != "" {
		args = append(args, "--version", req.Version)
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
		return nil, err
	}

	var rel helmRelease
	if err := decodeJSON(res.Stdout, &rel); err != nil {
		return nil, err
	}
	info := rel.toReleaseInfo()
	if info.Values == nil {
		info.Values = req.Values
	}
	m.log.Info("release installed", "namespace", info.Namespace, "name", info.Name, "revision", info.Revision)
	return info, nil
}

// writeValuesFile serializes values to a temp YAML file via a safe dumper.
// Returns the path (empty when values is nil) and a cleanup func that is
// always safe to call.
func writeValuesFile(values map[string]interface{}) (string, func(), error) {
	if len(values) == 0 {
		return "", func() {}, nil
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return "", func() {}, fmt.Errorf("marshal values: %w", err)
	}
	f, err := os.CreateTemp("", "helm-values-*.yaml")
	if err != nil {
		return "", func() {}, fmt.Errorf("create values file: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("write values file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("close values file: %w", err)
	}
	return path, cleanup, nil
}
