package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// containerFormat identifies the on-disk input kind.
type containerFormat int

const (
	formatUnknown containerFormat = iota
	formatZip
	formatArchive
)

// Extract unpacks a zip container or a CARC archive into a fresh temporary
// workspace and returns its path. The input format is sniffed from the file
// magic so both worker paths share one extractor. On failure the workspace
// is removed and the error returned; there is no partial-extraction recovery.
func (t *Transcoder) Extract(containerPath string) (string, error) {
	format, err := sniffFormat(containerPath)
	if err != nil {
		return "", err
	}

	workspace, err := t.mkdirTemp("", "cad-archiver-*")
	if err != nil {
		return "", fmt.Errorf("create temporary workspace: %w", err)
	}

	switch format {
	case formatZip:
		err = extractZip(containerPath, workspace)
	case formatArchive:
		err = unpackArchive(containerPath, workspace)
	}
	if err != nil {
		_ = t.removeAll(workspace)
		return "", err
	}
	return workspace, nil
}

// sniffFormat reads the file magic to classify the input.
func sniffFormat(path string) (containerFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return formatUnknown, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return formatUnknown, fmt.Errorf("%w: %s", ErrNotContainer, path)
	}
	magic = magic[:n]

	switch {
	case bytes.HasPrefix(magic, []byte("PK")):
		return formatZip, nil
	case bytes.Equal(magic, []byte(Magic)):
		return formatArchive, nil
	default:
		return formatUnknown, fmt.Errorf("%w: %s", ErrNotContainer, path)
	}
}

// extractZip materializes every zip entry under destDir.
func extractZip(srcPath, destDir string) error {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: %s", ErrNotContainer, srcPath)
		}
		return fmt.Errorf("open zip container: %w", err)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if !filepath.IsLocal(filepath.FromSlash(entry.Name)) {
			return fmt.Errorf("zip entry escapes workspace: %s", entry.Name)
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(entry.Name))

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", entry.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("create parent for %s: %w", entry.Name, err)
		}
		if err := copyZipEntry(entry, destPath); err != nil {
			return err
		}
	}
	return nil
}

// copyZipEntry writes one zip entry's contents to destPath.
func copyZipEntry(entry *zip.File, destPath string) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return out.Close()
}

// unpackArchive materializes every CARC stream under destDir.
func unpackArchive(srcPath, destDir string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	codecName, entries, dataOffset, err := readHeader(f)
	if err != nil {
		return err
	}
	codec, err := CodecByName(codecName)
	if err != nil {
		return err
	}

	offset := dataOffset
	for _, meta := range entries {
		if !filepath.IsLocal(filepath.FromSlash(meta.RelPath)) {
			return fmt.Errorf("archive entry escapes workspace: %s", meta.RelPath)
		}
		destPath := filepath.Join(destDir, filepath.FromSlash(meta.RelPath))
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("create parent for %s: %w", meta.RelPath, err)
		}

		section := io.NewSectionReader(f, offset, int64(meta.CompressedSize))
		if err := decompressEntry(section, destPath, meta, codec); err != nil {
			return err
		}
		offset += int64(meta.CompressedSize)
	}
	return nil
}

// decompressEntry streams one compressed section into its destination file.
func decompressEntry(r io.Reader, destPath string, meta entryMeta, codec Codec) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", meta.RelPath, err)
	}
	defer out.Close()

	cr, err := codec.Reader(r)
	if err != nil {
		return fmt.Errorf("open stream for %s: %w", meta.RelPath, err)
	}
	defer cr.Close()

	n, err := io.Copy(out, cr)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", meta.RelPath, err)
	}
	if uint64(n) != meta.OriginalSize {
		return fmt.Errorf("decompress %s: got %d bytes, want %d", meta.RelPath, n, meta.OriginalSize)
	}
	return out.Close()
}
