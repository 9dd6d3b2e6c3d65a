package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// TestPackEmptyWorkspaceSucceedsWithoutProgress checks the zero-entry case:
// no progress events and a valid archive containing no files.
func TestPackEmptyWorkspaceSucceedsWithoutProgress(t *testing.T) {
	root := t.TempDir()
	workspace := filepath.Join(root, "ws")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		t.Fatalf("mkdir workspace: %v", err)
	}
	archivePath := filepath.Join(root, "empty.carc")

	codec, err := CodecByName("zstd")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	tc := NewTranscoder(nil)
	var percents []int
	count, err := tc.Pack(workspace, archivePath, codec, func(p int) { percents = append(percents, p) })
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	if len(percents) != 0 {
		t.Fatalf("progress events = %v, want none", percents)
	}

	out, err := tc.Extract(archivePath)
	if err != nil {
		t.Fatalf("Extract(empty archive) error = %v", err)
	}
	defer os.RemoveAll(out)

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read extracted workspace: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("extracted entries = %d, want 0", len(entries))
	}
}

// TestPackEmitsOneProgressEventPerFile checks progress count and bounds.
func TestPackEmitsOneProgressEventPerFile(t *testing.T) {
	root := t.TempDir()
	workspace := filepath.Join(root, "ws")
	for i := 0; i < 7; i++ {
		mustWriteFile(t, filepath.Join(workspace, fmt.Sprintf("file-%d.txt", i)), "content")
	}

	codec, err := CodecByName("zstd")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	tc := NewTranscoder(nil)
	var percents []int
	count, err := tc.Pack(workspace, filepath.Join(root, "out.carc"), codec, func(p int) {
		percents = append(percents, p)
	})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
	assertProgressSequence(t, percents, 7)
}

// TestPackPreservesNestedRelativePaths checks entry paths survive the round trip.
func TestPackPreservesNestedRelativePaths(t *testing.T) {
	root := t.TempDir()
	workspace := filepath.Join(root, "ws")
	mustWriteFile(t, filepath.Join(workspace, "a", "b", "deep.txt"), "deep")
	mustWriteFile(t, filepath.Join(workspace, "top.txt"), "top")

	codec, err := CodecByName("lz4")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	tc := NewTranscoder(nil)
	archivePath := filepath.Join(root, "nested.carc")
	if _, err := tc.Pack(workspace, archivePath, codec, nil); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	out, err := tc.Extract(archivePath)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	defer os.RemoveAll(out)

	for rel, want := range map[string]string{
		filepath.Join("a", "b", "deep.txt"): "deep",
		"top.txt":                           "top",
	} {
		got, err := os.ReadFile(filepath.Join(out, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(got) != want {
			t.Fatalf("entry %s = %q, want %q", rel, got, want)
		}
	}
}

// TestPackUnwritableDestinationFails checks the IOError path.
func TestPackUnwritableDestinationFails(t *testing.T) {
	root := t.TempDir()
	workspace := filepath.Join(root, "ws")
	mustWriteFile(t, filepath.Join(workspace, "file.txt"), "content")

	blocker := filepath.Join(root, "blocker")
	mustWriteFile(t, blocker, "a file, not a directory")

	codec, err := CodecByName("zstd")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	tc := NewTranscoder(nil)
	if _, err := tc.Pack(workspace, filepath.Join(blocker, "out.carc"), codec, nil); err == nil {
		t.Fatal("expected error for unwritable destination")
	}
}
