// Package host integrates with the CAD application that owns the zip
// container format. Document reconstruction is delegated to the host's
// command-line interface; the open-document check uses the sidecar lock
// file the host leaves next to an open document.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Host is the application gateway the controller and pipelines depend on.
type Host interface {
	// IsOpen reports whether the document at path is open in the host.
	IsOpen(path string) (bool, error)
	// Reconstruct materializes a container at outPath from a workspace manifest.
	Reconstruct(ctx context.Context, manifestPath, outPath string) error
	// OpenDocument opens a container in the host application.
	OpenDocument(path string) error
}

// ErrNotConfigured is returned when no host executable is set in settings.
var ErrNotConfigured = errors.New("host executable is not configured")

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// CLI drives the host application through its command-line interface.
// Reconstruction contract: `<bin> rebuild --manifest <path> --out <path>`,
// non-zero exit on a malformed manifest.
type CLI struct {
	bin    string
	runner commandRunner
	stat   func(name string) (os.FileInfo, error)
}

// NewCLI creates a host gateway for the given executable.
func NewCLI(bin string) *CLI {
	return &CLI{
		bin:    strings.TrimSpace(bin),
		runner: &execRunner{},
		stat:   os.Stat,
	}
}

// IsOpen checks for the host's sidecar lock file next to the document.
func (c *CLI) IsOpen(path string) (bool, error) {
	_, err := c.stat(lockFilePath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("check document lock: %w", err)
}

// Reconstruct invokes the host CLI to rebuild a container from a manifest.
func (c *CLI) Reconstruct(ctx context.Context, manifestPath, outPath string) error {
	if c.bin == "" {
		return ErrNotConfigured
	}

	result, err := c.runner.Run(ctx, c.bin, "rebuild", "--manifest", manifestPath, "--out", outPath)
	if err != nil {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("host rebuild failed (exit=%d): %s", result.ExitCode, detail)
	}
	return nil
}

// OpenDocument launches the host application with the container path.
func (c *CLI) OpenDocument(path string) error {
	if c.bin == "" {
		return ErrNotConfigured
	}

	cmd := exec.Command(c.bin, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch host application: %w", err)
	}
	return nil
}

// lockFilePath returns the sidecar lock file path for a document.
func lockFilePath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, ".~lock."+base+"#")
}

// NewCLIForTests creates a host gateway with injectable dependencies.
func NewCLIForTests(
	bin string,
	runner commandRunner,
	stat func(name string) (os.FileInfo, error),
) *CLI {
	return &CLI{bin: bin, runner: runner, stat: stat}
}
