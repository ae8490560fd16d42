package execx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
)

func TestRun_CapturesStdout(t *testing.T) {
	e := New(nil)
	res, err := e.Run(context.Background(), "echo", []string{"hello"}, nil, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("stdout = %q, want hello", res.Stdout)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestRun_Stdin(t *testing.T) {
	e := New(nil)
	res, err := e.Run(context.Background(), "cat", nil, strings.NewReader("piped"), 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Stdout != "piped" {
		t.Errorf("stdout = %q, want piped", res.Stdout)
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	e := New(nil)
	_, err := e.Run(context.Background(), "definitely-not-a-binary-xyz", nil, nil, time.Second)
	var notFound *errdefs.BinaryNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected BinaryNotFoundError, got %v", err)
	}
	if notFound.Binary != "definitely-not-a-binary-xyz" {
		t.Errorf("binary = %q", notFound.Binary)
	}
}

func TestRun_Timeout(t *testing.T) {
	e := New(nil)
	_, err := e.Run(context.Background(), "sleep", []string{"5"}, nil, 100*time.Millisecond)
	var timeout *errdefs.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	e := New(nil)
	_, err := e.Run(context.Background(), "sh", []string{"-c", "echo oops >&2; exit 3"}, nil, 5*time.Second)
	var execErr *errdefs.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if !strings.Contains(execErr.Stderr, "oops") {
		t.Errorf("stderr = %q, want it to contain oops", execErr.Stderr)
	}
}
