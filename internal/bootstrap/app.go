package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"cad-archiver/internal/archive"
	"cad-archiver/internal/config"
	"cad-archiver/internal/diagnostics"
	"cad-archiver/internal/domain"
	"cad-archiver/internal/host"
	"cad-archiver/internal/jobs"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var containerDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "CAD save files",
		Pattern:     "*.fcstd;*.zip",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var archiveDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "CAD archives",
		Pattern:     "*.carc",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// ErrDocumentOpen is returned when a job targets a document open in the host.
var ErrDocumentOpen = errors.New("document is open in the host application")

// ErrChecksFailed is returned when startup diagnostics block job dispatch.
var ErrChecksFailed = errors.New("startup diagnostics have failures")

// App wires configuration, jobs, the transcoder, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Transcoder  transcoder
	Host        host.Host
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker

	mu         sync.Mutex
	events     *jobs.EventBus
	runtimeCtx context.Context
}

// transcoder isolates the archive pipelines behind an interface.
type transcoder interface {
	Compress(ctx context.Context, req archive.CompressRequest) (archive.CompressResult, error)
	Restore(ctx context.Context, req archive.RestoreRequest) (archive.RestoreResult, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".cad-archiver", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)
	hostCLI := host.NewCLI(settings.HostPath)

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Transcoder:  archive.NewTranscoder(hostCLI),
		Host:        hostCLI,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		events:      jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "CAD Archiver",
		Width:       1080,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	report := a.checker.Run(settings)

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = report
	a.mu.Unlock()

	return report, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics
// and rebinds the host gateway to the configured executable.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	hostCLI := host.NewCLI(normalized.HostPath)

	a.mu.Lock()
	a.Settings = normalized
	a.Host = hostCLI
	a.Transcoder = archive.NewTranscoder(hostCLI)
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// PickContainerFile opens a native file dialog for CAD save file selection.
func (a *App) PickContainerFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select CAD save file",
		Filters: containerDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickArchiveFile opens a native file dialog for archive selection.
func (a *App) PickArchiveFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select archive",
		Filters: archiveDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for job outputs.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// StartCompress validates inputs and runs the compress worker asynchronously.
func (a *App) StartCompress(containerPath, archivePath string) (domain.Job, error) {
	containerPath = strings.TrimSpace(containerPath)
	archivePath = strings.TrimSpace(archivePath)
	if containerPath == "" || archivePath == "" {
		return domain.Job{}, fmt.Errorf("container and archive paths are required")
	}

	settings, err := a.loadSettingsForJob()
	if err != nil {
		return domain.Job{}, err
	}
	if err := a.rejectOpenDocuments(containerPath, archivePath); err != nil {
		return domain.Job{}, err
	}

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID, domain.JobKindCompress); err != nil {
		return domain.Job{}, err
	}

	// Snapshot the transcoder so a concurrent SaveSettings rebind cannot
	// race with the worker goroutine.
	a.mu.Lock()
	tr := a.Transcoder
	a.mu.Unlock()

	a.publishStatus(jobID, domain.JobStatusExtracting, "Compress job started")
	go a.runCompressJob(tr, jobID, containerPath, archivePath, settings.Codec)
	return a.Jobs.Current(), nil
}

// StartRestore validates inputs and runs the restore worker asynchronously.
func (a *App) StartRestore(archivePath, containerPath string) (domain.Job, error) {
	archivePath = strings.TrimSpace(archivePath)
	containerPath = strings.TrimSpace(containerPath)
	if archivePath == "" || containerPath == "" {
		return domain.Job{}, fmt.Errorf("archive and container paths are required")
	}

	if _, err := a.loadSettingsForJob(); err != nil {
		return domain.Job{}, err
	}
	if err := a.rejectOpenDocuments(archivePath, containerPath); err != nil {
		return domain.Job{}, err
	}

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID, domain.JobKindRestore); err != nil {
		return domain.Job{}, err
	}

	a.mu.Lock()
	tr := a.Transcoder
	a.mu.Unlock()

	a.publishStatus(jobID, domain.JobStatusExtracting, "Restore job started")
	go a.runRestoreJob(tr, jobID, archivePath, containerPath)
	return a.Jobs.Current(), nil
}

// OpenInHost opens a rebuilt container in the host application.
func (a *App) OpenInHost(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("document path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("resolve document path: %w", err)
	}

	a.mu.Lock()
	h := a.Host
	a.mu.Unlock()
	return h.OpenDocument(path)
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// loadSettingsForJob refreshes settings and blocks dispatch on failed checks.
func (a *App) loadSettingsForJob() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	failed := a.Diagnostics.HasFailures
	a.mu.Unlock()

	if failed {
		return domain.Settings{}, ErrChecksFailed
	}
	return settings, nil
}

// rejectOpenDocuments refuses to touch paths currently open in the host.
// The check runs before any worker starts, so no workspace is created for
// a rejected job.
func (a *App) rejectOpenDocuments(paths ...string) error {
	a.mu.Lock()
	h := a.Host
	a.mu.Unlock()

	for _, path := range paths {
		open, err := h.IsOpen(path)
		if err != nil {
			return fmt.Errorf("check open documents: %w", err)
		}
		if open {
			return fmt.Errorf("%w: %s", ErrDocumentOpen, path)
		}
	}
	return nil
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies the default codec when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.HostPath = strings.TrimSpace(settings.HostPath)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.Codec = strings.TrimSpace(settings.Codec)
	if settings.Codec == "" {
		settings.Codec = config.DefaultCodec
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
