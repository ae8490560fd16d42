package helm

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/execx"
)

// spyRunner records invocations and replays scripted results, so tests can
// assert that validation failures never spawn a subprocess.
type spyRunner struct {
	calls  [][]string
	stdout string
	err    error
}

func (s *spyRunner) Run(_ context.Context, binary string, args []string, _ io.Reader, _ time.Duration) (*execx.Result, error) {
	s.calls = append(s.calls, append([]string{binary}, args...))
	if s.err != nil {
		return nil, s.err
	}
	return &execx.Result{Stdout: s.stdout}, nil
}

func newTestManager(spy *spyRunner) *Manager {
	return NewManager(spy, "helm", "paas-ws-", 30*time.Second, nil)
}

func TestInstall_RejectsForeignNamespaceBeforeSubprocess(t *testing.T) {
	spy := &spyRunner{}
	m := newTestManager(spy)

	_, err := m.Install(context.Background(), InstallRequest{
		Namespace: "kube-system", Name: "ha", Chart: "ha/chart",
	})

	var verr *errdefs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, spy.calls, "no subprocess may run for an invalid namespace")
}

func TestInstall_RequiresChart(t *testing.T) {
	spy := &spyRunner{}
	m := newTestManager(spy)

	_, err := m.Install(context.Background(), InstallRequest{
		Namespace: "paas-ws-acme", Name: "ha",
	})

	var verr *errdefs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, spy.calls)
}

func TestInstall_ParsesReleaseJSON(t *testing.T) {
	spy := &spyRunner{stdout: `{
		"name": "ha",
		"namespace": "paas-ws-acme",
		"version": 1,
		"info": {
			"status": "deployed",
			"last_deployed": "2026-08-30T10:15:00.123456789Z",
			"description": "Install complete"
		},
		"chart": {
			"metadata": {"name": "home-assistant", "version": "0.2.1", "appVersion": "2026.8"}
		},
		"config": {"ingress": {"enabled": true}}
	}`}
	m := newTestManager(spy)

	info, err := m.Install(context.Background(), InstallRequest{
		Namespace: "paas-ws-acme", Name: "ha", Chart: "paas/home-assistant",
		Version: "0.2.1", CreateNamespace: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "ha", info.Name)
	assert.Equal(t, 1, info.Revision)
	assert.Equal(t, StatusDeployed, info.Status)
	assert.Equal(t, "home-assistant-0.2.1", info.Chart)
	assert.Equal(t, "2026.8", info.AppVersion)
	assert.Equal(t, 2026, info.Updated.Year())
	assert.Equal(t, map[string]interface{}{"ingress": map[string]interface{}{"enabled": true}}, info.Values)

	require.Len(t, spy.calls, 1)
	args := spy.calls[0]
	assert.Equal(t, "helm", args[0])
	assert.Contains(t, args, "install")
	assert.Contains(t, args, "--create-namespace")
	assert.Contains(t, args, "--version")
}

func TestGet_ParsesListOutput(t *testing.T) {
	// `helm list` emits revision as a string and Go-style timestamps.
	spy := &spyRunner{stdout: `[{
		"name": "ha",
		"namespace": "paas-ws-acme",
		"revision": "3",
		"updated": "2026-08-30 10:15:00.123456789 +0000 UTC",
		"status": "deployed",
		"chart": "home-assistant-0.2.1",
		"app_version": "2026.8"
	}]`}
	m := newTestManager(spy)

	info, err := m.Get(context.Background(), "paas-ws-acme", "ha")
	require.NoError(t, err)

	assert.Equal(t, 3, info.Revision)
	assert.Equal(t, StatusDeployed, info.Status)
	assert.False(t, info.Updated.IsZero())

	require.Len(t, spy.calls, 1)
	assert.Contains(t, spy.calls[0], "--filter")
	assert.Contains(t, spy.calls[0], "^ha$")
}

func TestGet_EmptyListIsNotFound(t *testing.T) {
	spy := &spyRunner{stdout: `[]`}
	m := newTestManager(spy)

	_, err := m.Get(context.Background(), "paas-ws-acme", "missing")

	var nf *errdefs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Name)
}

func TestUpgrade_RequiresChart(t *testing.T) {
	spy := &spyRunner{}
	m := newTestManager(spy)

	_, err := m.Upgrade(context.Background(), UpgradeRequest{
		Namespace: "paas-ws-acme", Name: "ha",
	})

	var verr *errdefs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, spy.calls)
}

func TestUpgrade_MapsNotFoundStderr(t *testing.T) {
	spy := &spyRunner{err: &errdefs.ExecutionError{
		Message: "command failed",
		Stderr:  `Error: UPGRADE FAILED: release: not found`,
	}}
	m := newTestManager(spy)

	_, err := m.Upgrade(context.Background(), UpgradeRequest{
		Namespace: "paas-ws-acme", Name: "ghost", Chart: "paas/home-assistant",
	})

	var nf *errdefs.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRollback_RevisionHandling(t *testing.T) {
	spy := &spyRunner{}
	m := newTestManager(spy)

	err := m.Rollback(context.Background(), "paas-ws-acme", "ha", -1)
	var verr *errdefs.ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, m.Rollback(context.Background(), "paas-ws-acme", "ha", 0))
	assert.NotContains(t, spy.calls[0], "0", "revision 0 must be omitted so helm uses the previous revision")

	require.NoError(t, m.Rollback(context.Background(), "paas-ws-acme", "ha", 2))
	assert.Contains(t, spy.calls[1], "2")
}

func TestHistory_ParsesRevisions(t *testing.T) {
	spy := &spyRunner{stdout: `[
		{"revision": 1, "updated": "2026-08-29T09:00:00Z", "status": "superseded", "chart": "home-assistant-0.2.0", "app_version": "2026.7", "description": "Install complete"},
		{"revision": 2, "updated": "2026-08-30T10:15:00Z", "status": "deployed", "chart": "home-assistant-0.2.1", "app_version": "2026.8", "description": "Upgrade complete"}
	]`}
	m := newTestManager(spy)

	revs, err := m.History(context.Background(), "paas-ws-acme", "ha")
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, StatusSuperseded, revs[0].Status)
	assert.Equal(t, 2, revs[1].Revision)
}

func TestList_MalformedJSONIsExecutionError(t *testing.T) {
	spy := &spyRunner{stdout: `not json`}
	m := newTestManager(spy)

	_, err := m.List(context.Background(), "paas-ws-acme")

	var execErr *errdefs.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestVersion(t *testing.T) {
	spy := &spyRunner{stdout: "v3.15.2+g1a500d5\n"}
	m := newTestManager(spy)

	v, err := m.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v3.15.2+g1a500d5", v)
}

func TestParseHelmTime(t *testing.T) {
	assert.True(t, parseHelmTime("").IsZero())
	assert.True(t, parseHelmTime("garbage").IsZero())
	assert.False(t, parseHelmTime("2026-08-30T10:15:00Z").IsZero())
	assert.False(t, parseHelmTime("2026-08-30 10:15:00.123456789 +0000 UTC").IsZero())
}

func TestParseStatus_UnknownFallback(t *testing.T) {
	assert.Equal(t, StatusUnknown, parseStatus("weird"))
	assert.Equal(t, StatusDeployed, parseStatus("DEPLOYED"))
}

func TestUninstall_PropagatesRunnerError(t *testing.T) {
	wantErr := errors.New("boom")
	spy := &spyRunner{err: wantErr}
	m := newTestManager(spy)

	err := m.Uninstall(context.Background(), "paas-ws-acme", "ha")
	assert.ErrorIs(t, err, wantErr)
}
