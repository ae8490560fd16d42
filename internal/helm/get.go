package helm

import (
	"context"
	"regexp"
)

// Get returns a single release via `helm list --filter`. The list command is
// used instead of `helm get` because it returns status, revision, chart and
// app_version in one call.
func (m *Manager) Get(ctx context.Context, namespace, name string) (*ReleaseInfo, error) {
	if err := m.checkNamespace(namespace); err != nil {
		return nil, err
	}
	if err := m.checkName(name); err != nil {
		return nil, err
	}

	args := []string{
		"list", "--namespace", namespace,
		"--filter", "^" + regexp.QuoteMeta(name) + "$",
		"--output", "json",
	}
	res, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout)
	if err != nil {
		return nil, err
	}

	var items []helmListItem
	if err := decodeJSON(res.Stdout, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFoundRelease(name)
	}
	return items[0].toReleaseInfo(), nil
}

// List returns all releases in a workspace namespace.
func (m *Manager) List(ctx context.Context, namespace string) ([]*ReleaseInfo, error) {
	if err := m.checkNamespace(namespace); err != nil {
		return nil, err
	}

	args := []string{"list", "--namespace", namespace, "--output", "json"}
	res, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout)
	if err != nil {
		return nil, err
	}

	var items []helmListItem
	if err := decodeJSON(res.Stdout, &items); err != nil {
		return nil, err
	}
	out := make([]*ReleaseInfo, 0, len(items))
	for i := range items {
		out = append(out, items[i].toReleaseInfo())
	}
	return out, nil
}
