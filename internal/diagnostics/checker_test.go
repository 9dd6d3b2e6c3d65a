package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cad-archiver/internal/domain"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		os.MkdirTemp,
		os.RemoveAll,
	)

	report := checker.Run(domain.Settings{
		HostPath:  "cadhost",
		OutputDir: filepath.Join(root, "output"),
		Codec:     "zstd",
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
}

// TestCheckerRunMissingHostFails validates the missing-dependency check.
func TestCheckerRunMissingHostFails(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		os.MkdirTemp,
		os.RemoveAll,
	)

	report := checker.Run(domain.Settings{
		HostPath:  "cadhost",
		OutputDir: filepath.Join(root, "output"),
		Codec:     "zstd",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	assertStatusByID(t, report, "host_executable", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "archive_codec", domain.DiagnosticStatusPass)
}

// TestCheckerRunExplicitHostPath validates stat-based checks for full paths.
func TestCheckerRunExplicitHostPath(t *testing.T) {
	root := t.TempDir()
	binPath := filepath.Join(root, "bin", "cadhost")
	if err := os.MkdirAll(filepath.Dir(binPath), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(binPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write bin: %v", err)
	}

	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("lookPath must not be used") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		os.MkdirTemp,
		os.RemoveAll,
	)

	report := checker.Run(domain.Settings{
		HostPath:  binPath,
		OutputDir: filepath.Join(root, "output"),
		Codec:     "lz4",
	})

	assertStatusByID(t, report, "host_executable", domain.DiagnosticStatusPass)
}

// TestCheckerRunUnknownCodecAndEmptyPathsFail validates failure reporting.
func TestCheckerRunUnknownCodecAndEmptyPathsFail(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		os.MkdirTemp,
		os.RemoveAll,
	)

	report := checker.Run(domain.Settings{
		HostPath:  "",
		OutputDir: "",
		Codec:     "brotli",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	assertStatusByID(t, report, "host_executable", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "archive_codec", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "output_dir", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
