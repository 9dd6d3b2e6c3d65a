package archive

import (
	"context"
	"fmt"
	"path/filepath"
)

// Reconstructor materializes a host container from an extracted manifest.
// The production implementation lives in the host package.
type Reconstructor interface {
	Reconstruct(ctx context.Context, manifestPath, outPath string) error
}

// Rebuild locates the document manifest inside workspaceDir and asks the
// reconstructor to materialize the container at destPath, returning its
// byte size. A missing manifest fails before the reconstructor is invoked;
// it is the signal that the archive is not a valid transcoded container.
func (t *Transcoder) Rebuild(ctx context.Context, workspaceDir, destPath string) (int64, error) {
	manifestPath := filepath.Join(workspaceDir, t.manifestName)
	if _, err := t.stat(manifestPath); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingManifest, t.manifestName)
	}

	if err := t.reconstructor.Reconstruct(ctx, manifestPath, destPath); err != nil {
		return 0, fmt.Errorf("reconstruct container: %w", err)
	}

	info, err := t.stat(destPath)
	if err != nil {
		return 0, fmt.Errorf("stat rebuilt container: %w", err)
	}
	return info.Size(), nil
}
