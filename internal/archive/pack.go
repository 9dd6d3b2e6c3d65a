package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// packEntry is one workspace file queued for the archive.
type packEntry struct {
	RelPath  string
	FilePath string
}

// Pack walks workspaceDir and writes every regular file into a CARC
// archive at destPath, compressing each file with codec. The full file
// list is collected before writing so per-file progress is computable;
// entries keep directory-walk order. onProgress receives one percentage
// per file. On error the destination may be left truncated and must be
// treated as invalid.
func (t *Transcoder) Pack(workspaceDir, destPath string, codec Codec, onProgress func(percent int)) (int, error) {
	entries, err := collectEntries(workspaceDir)
	if err != nil {
		return 0, fmt.Errorf("collect workspace entries: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	if err := writeHeader(f, codec.Name(), len(entries)); err != nil {
		return 0, err
	}

	// Reserve metadata records up front; sizes are patched after each stream.
	offsets := make([]int64, len(entries))
	for i, entry := range entries {
		offsets[i], err = f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("seek entry %d: %w", i, err)
		}
		if _, err = f.Write(make([]byte, metaRecordSize(entry.RelPath))); err != nil {
			return 0, fmt.Errorf("reserve entry %d metadata: %w", i, err)
		}
	}

	for i, entry := range entries {
		startPos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("seek stream start for %s: %w", entry.RelPath, err)
		}

		originalSize, err := compressFile(entry.FilePath, f, codec)
		if err != nil {
			return 0, fmt.Errorf("compress %s: %w", entry.RelPath, err)
		}

		endPos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("seek stream end for %s: %w", entry.RelPath, err)
		}

		meta := entryMeta{
			RelPath:        entry.RelPath,
			OriginalSize:   originalSize,
			CompressedSize: uint64(endPos - startPos),
		}
		if err := patchEntryMeta(f, offsets[i], meta); err != nil {
			return 0, err
		}
		if _, err = f.Seek(endPos, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek back after %s: %w", entry.RelPath, err)
		}

		if onProgress != nil {
			onProgress((i + 1) * 100 / len(entries))
		}
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close archive: %w", err)
	}
	return len(entries), nil
}

// collectEntries gathers all regular files under root with slash-relative paths.
func collectEntries(root string) ([]packEntry, error) {
	var entries []packEntry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		entries = append(entries, packEntry{
			RelPath:  filepath.ToSlash(relPath),
			FilePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// compressFile streams one file through the codec and returns its original size.
func compressFile(filePath string, w io.Writer, codec Codec) (uint64, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw, err := codec.Writer(w)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(cw, f)
	if err != nil {
		_ = cw.Close()
		return 0, err
	}
	if err := cw.Close(); err != nil {
		return 0, err
	}
	return uint64(n), nil
}
