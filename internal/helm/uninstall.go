package helm

import "context"

// Uninstall removes a release. Safe to retry: a second call surfaces
// NotFoundError.
func (m *Manager) Uninstall(ctx context.Context, namespace, name string) error {
	if err := m.checkNamespace(namespace); err != nil {
		return err
	}
	if err := m.checkName(name); err != nil {
		return err
	}

	args := []string{"uninstall", name, "--namespace", namespace}
	if _, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout); err != nil {
		return asNotFound(err, "release", name)
	}
	m.log.Info("release uninstalled", "namespace", namespace, "name", name)
	return nil
}
