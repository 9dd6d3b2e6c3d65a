package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner simulates host CLI execution.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

// TestCLIIsOpenDetectsLockFile checks the sidecar lock file convention.
func TestCLIIsOpenDetectsLockFile(t *testing.T) {
	root := t.TempDir()
	docPath := filepath.Join(root, "part.fcstd")
	if err := os.WriteFile(docPath, []byte("doc"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	cli := NewCLIForTests("cadhost", &fakeRunner{}, os.Stat)
	open, err := cli.IsOpen(docPath)
	if err != nil {
		t.Fatalf("IsOpen() error = %v", err)
	}
	if open {
		t.Fatal("document without lock file reported open")
	}

	lockPath := filepath.Join(root, ".~lock.part.fcstd#")
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	open, err = cli.IsOpen(docPath)
	if err != nil {
		t.Fatalf("IsOpen() error = %v", err)
	}
	if !open {
		t.Fatal("locked document reported closed")
	}
}

// TestCLIReconstructInvokesRebuildCommand checks the CLI contract arguments.
func TestCLIReconstructInvokesRebuildCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			gotName = name
			gotArgs = append([]string{}, args...)
			return commandResult{ExitCode: 0}, nil
		},
	}

	cli := NewCLIForTests("cadhost", runner, os.Stat)
	if err := cli.Reconstruct(context.Background(), "/ws/Document.xml", "/out/part.fcstd"); err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}

	if gotName != "cadhost" {
		t.Fatalf("command = %q, want cadhost", gotName)
	}
	want := []string{"rebuild", "--manifest", "/ws/Document.xml", "--out", "/out/part.fcstd"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

// TestCLIReconstructSurfacesStderr checks the failure message includes
// the host's stderr output.
func TestCLIReconstructSurfacesStderr(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "malformed manifest", ExitCode: 2}, errors.New("exit status 2")
		},
	}

	cli := NewCLIForTests("cadhost", runner, os.Stat)
	err := cli.Reconstruct(context.Background(), "/ws/Document.xml", "/out/part.fcstd")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "malformed manifest") {
		t.Fatalf("error %q does not include stderr", err)
	}
	if !strings.Contains(err.Error(), "exit=2") {
		t.Fatalf("error %q does not include exit code", err)
	}
}

// TestCLIReconstructRequiresExecutable checks the unconfigured host error.
func TestCLIReconstructRequiresExecutable(t *testing.T) {
	cli := NewCLIForTests("", &fakeRunner{}, os.Stat)
	err := cli.Reconstruct(context.Background(), "/ws/Document.xml", "/out/part.fcstd")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
}
