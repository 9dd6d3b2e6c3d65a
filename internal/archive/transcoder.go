package archive

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// CompressRequest contains input container, destination, and callbacks for one run.
type CompressRequest struct {
	ContainerPath string
	ArchivePath   string
	Codec         string
	OnStage       func(stage string)
	OnProgress    func(percent int)
}

// CompressResult reports archive size accounting for one finished run.
type CompressResult struct {
	ArchivePath  string
	FileCount    int
	OriginalSize int64
	ArchiveSize  int64
	Ratio        float64
	tempDir      string
	removeAll    func(path string) error
}

// Cleanup removes the temporary workspace created by Compress.
func (r *CompressResult) Cleanup() error {
	if r == nil || r.tempDir == "" {
		return nil
	}
	if err := r.remove(r.tempDir); err != nil {
		return err
	}
	r.tempDir = ""
	return nil
}

func (r *CompressResult) remove(path string) error {
	if r.removeAll == nil {
		return os.RemoveAll(path)
	}
	return r.removeAll(path)
}

// RestoreRequest contains input archive, destination, and callbacks for one run.
type RestoreRequest struct {
	ArchivePath   string
	ContainerPath string
	OnStage       func(stage string)
}

// RestoreResult reports the rebuilt container for one finished run.
type RestoreResult struct {
	ContainerPath string
	ContainerSize int64
	tempDir       string
	removeAll     func(path string) error
}

// Cleanup removes the temporary workspace created by Restore.
func (r *RestoreResult) Cleanup() error {
	if r == nil || r.tempDir == "" {
		return nil
	}
	if err := r.remove(r.tempDir); err != nil {
		return err
	}
	r.tempDir = ""
	return nil
}

func (r *RestoreResult) remove(path string) error {
	if r.removeAll == nil {
		return os.RemoveAll(path)
	}
	return r.removeAll(path)
}

// Transcoder repacks zip containers into CARC archives and back.
type Transcoder struct {
	reconstructor Reconstructor
	manifestName  string
	mkdirTemp     func(dir, pattern string) (string, error)
	removeAll     func(path string) error
	stat          func(name string) (os.FileInfo, error)
}

// NewTranscoder constructs the production transcoder with OS dependencies.
func NewTranscoder(reconstructor Reconstructor) *Transcoder {
	return &Transcoder{
		reconstructor: reconstructor,
		manifestName:  ManifestName,
		mkdirTemp:     os.MkdirTemp,
		removeAll:     os.RemoveAll,
		stat:          os.Stat,
	}
}

// Compress extracts a zip container into a temporary workspace and repacks
// it into a CARC archive, reporting per-file progress. The workspace is
// removed on every error path; on success the caller releases it through
// CompressResult.Cleanup.
func (t *Transcoder) Compress(ctx context.Context, req CompressRequest) (CompressResult, error) {
	if strings.TrimSpace(req.ContainerPath) == "" {
		return CompressResult{}, &OpError{Stage: StageExtracting, Message: "container path is required"}
	}
	if strings.TrimSpace(req.ArchivePath) == "" {
		return CompressResult{}, &OpError{Stage: StagePacking, Message: "archive path is required"}
	}

	info, err := t.stat(req.ContainerPath)
	if err != nil {
		return CompressResult{}, &OpError{
			Stage:   StageExtracting,
			Message: fmt.Sprintf("cannot access container: %s", req.ContainerPath),
			Err:     err,
		}
	}
	originalSize := info.Size()

	codec, err := CodecByName(req.Codec)
	if err != nil {
		return CompressResult{}, &OpError{Stage: StagePacking, Message: "resolve codec", Err: err}
	}

	emitStage(req.OnStage, StageExtracting)
	workspace, err := t.Extract(req.ContainerPath)
	if err != nil {
		return CompressResult{}, &OpError{
			Stage:   StageExtracting,
			Message: fmt.Sprintf("extract container: %s", req.ContainerPath),
			Err:     err,
		}
	}

	emitStage(req.OnStage, StagePacking)
	count, err := t.Pack(workspace, req.ArchivePath, codec, req.OnProgress)
	if err != nil {
		_ = t.removeAll(workspace)
		return CompressResult{}, &OpError{
			Stage:   StagePacking,
			Message: fmt.Sprintf("pack archive: %s", req.ArchivePath),
			Err:     err,
		}
	}

	archiveInfo, err := t.stat(req.ArchivePath)
	if err != nil {
		_ = t.removeAll(workspace)
		return CompressResult{}, &OpError{
			Stage:   StagePacking,
			Message: "archive written but cannot be read back",
			Err:     err,
		}
	}

	ratio := 0.0
	if originalSize > 0 {
		ratio = 1 - float64(archiveInfo.Size())/float64(originalSize)
	}

	return CompressResult{
		ArchivePath:  req.ArchivePath,
		FileCount:    count,
		OriginalSize: originalSize,
		ArchiveSize:  archiveInfo.Size(),
		Ratio:        ratio,
		tempDir:      workspace,
		removeAll:    t.removeAll,
	}, nil
}

// Restore extracts a CARC archive into a temporary workspace and rebuilds
// the original container through the reconstructor. The manifest presence
// check runs before reconstruction; the workspace is removed on every error
// path and released on success through RestoreResult.Cleanup.
func (t *Transcoder) Restore(ctx context.Context, req RestoreRequest) (RestoreResult, error) {
	if strings.TrimSpace(req.ArchivePath) == "" {
		return RestoreResult{}, &OpError{Stage: StageExtracting, Message: "archive path is required"}
	}
	if strings.TrimSpace(req.ContainerPath) == "" {
		return RestoreResult{}, &OpError{Stage: StageRebuilding, Message: "container path is required"}
	}

	emitStage(req.OnStage, StageExtracting)
	workspace, err := t.Extract(req.ArchivePath)
	if err != nil {
		return RestoreResult{}, &OpError{
			Stage:   StageExtracting,
			Message: fmt.Sprintf("extract archive: %s", req.ArchivePath),
			Err:     err,
		}
	}

	emitStage(req.OnStage, StageRebuilding)
	size, err := t.Rebuild(ctx, workspace, req.ContainerPath)
	if err != nil {
		_ = t.removeAll(workspace)
		return RestoreResult{}, &OpError{
			Stage:   StageRebuilding,
			Message: fmt.Sprintf("rebuild container: %s", req.ContainerPath),
			Err:     err,
		}
	}

	return RestoreResult{
		ContainerPath: req.ContainerPath,
		ContainerSize: size,
		tempDir:       workspace,
		removeAll:     t.removeAll,
	}, nil
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// NewTranscoderForTests constructs a transcoder with injectable dependencies.
func NewTranscoderForTests(
	reconstructor Reconstructor,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	stat func(name string) (os.FileInfo, error),
) *Transcoder {
	return &Transcoder{
		reconstructor: reconstructor,
		manifestName:  ManifestName,
		mkdirTemp:     mkdirTemp,
		removeAll:     removeAll,
		stat:          stat,
	}
}
