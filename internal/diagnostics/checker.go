package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"cad-archiver/internal/archive"
	"cad-archiver/internal/domain"
)

// Checker validates the host executable, codec, and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	mkdirTemp  func(string, string) (string, error)
	removeAll  func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
	}
}

// Run executes all startup checks and returns a combined report.
// A failed item blocks job dispatch until resolved; there is no retry.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkHostExecutable(settings.HostPath),
		c.checkCodec(settings.Codec),
		c.checkOutputDir(settings.OutputDir),
		c.checkTempWorkspace(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkHostExecutable verifies the CAD host binary is reachable.
func (c *Checker) checkHostExecutable(hostPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "host_executable",
		Name: "Host application",
	}

	hostPath = strings.TrimSpace(hostPath)
	if hostPath == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Host executable is not configured."
		item.Hint = "Set the CAD application executable in settings; it is required to rebuild containers."
		return item
	}

	if strings.ContainsRune(hostPath, os.PathSeparator) {
		info, err := c.stat(hostPath)
		if err != nil {
			item.Status = domain.DiagnosticStatusFail
			if errors.Is(err, os.ErrNotExist) {
				item.Message = fmt.Sprintf("Host executable does not exist: %s", hostPath)
			} else {
				item.Message = fmt.Sprintf("Cannot access host executable: %s", hostPath)
			}
			item.Hint = "Point settings at the CAD application binary."
			return item
		}
		if info.IsDir() {
			item.Status = domain.DiagnosticStatusFail
			item.Message = fmt.Sprintf("Host executable path is a directory: %s", hostPath)
			item.Hint = "Point settings at the CAD application binary, not its folder."
			return item
		}

		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Host executable found: %s", hostPath)
		return item
	}

	path, err := c.lookPath(hostPath)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Host executable not found in PATH: %s", hostPath)
		item.Hint = "Install the CAD application and ensure its binary is available on PATH."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkCodec verifies the configured archive codec is carried by this build.
func (c *Checker) checkCodec(name string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "archive_codec",
		Name: "Archive codec",
	}

	codec, err := archive.CodecByName(strings.TrimSpace(name))
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown archive codec: %q", name)
		item.Hint = "Choose zstd or lz4 in settings."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s compression", codec.Name())
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where archives can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for archive output."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkTempWorkspace verifies a temporary workspace can be created.
func (c *Checker) checkTempWorkspace() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "temp_workspace",
		Name: "Temporary workspace",
	}

	dir, err := c.mkdirTemp("", "cad-archiver-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Cannot create a temporary workspace."
		item.Hint = "Check free space and permissions for the system temp directory."
		return item
	}
	_ = c.removeAll(dir)

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Temporary workspace is available."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	mkdirTemp func(string, string) (string, error),
	removeAll func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		mkdirTemp:  mkdirTemp,
		removeAll:  removeAll,
	}
}
