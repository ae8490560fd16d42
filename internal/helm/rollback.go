package helm

import (
	"context"
	"strconv"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
)

// Rollback reverts a release. revision 0 means the previous revision (Helm's
// own default). Each rollback creates a new revision — not idempotent.
func (m *Manager) Rollback(ctx context.Context, namespace, name string, revision int) error {
	if err := m.checkNamespace(namespace); err != nil {
		return err
	}
	if err := m.checkName(name); err != nil {
		return err
	}
	if revision < 0 {
		return errdefs.Validationf("revision must be >= 0, got %d", revision)
	}

	args := []string{"rollback", name}
	if revision > 0 {
		args = append(args, strconv.Itoa(revision))
	}
	args = append(args, "--namespace", namespace)

	if _, err := m.runner.Run(ctx, m.binary, args, nil, m.timeout); err != nil {
		return asNotFound(err, "release", name)
	}
	m.log.Info("release rolled back", "namespace", namespace, "name", name, "revision", revision)
	return nil
}
