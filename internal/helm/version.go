package helm

import (
	"context"
	"strings"
	"time"
)

const versionTimeout = 10 * time.Second

// Version returns the helm client version (`helm version --short`). Used by
// the health endpoint to distinguish "degraded" from "healthy".
func (m *Manager) Version(ctx context.Context) (string, error) {
	res, err := m.runner.Run(ctx, m.binary, []string{"version", "--short"}, nil, versionTimeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
