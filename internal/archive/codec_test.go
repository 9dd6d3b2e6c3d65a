package archive

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// TestCodecRoundTrip checks both codecs compress and restore a stream.
func TestCodecRoundTrip(t *testing.T) {
	payload := strings.Repeat("solid model data ", 500)

	for _, name := range []string{"zstd", "lz4"} {
		codec, err := CodecByName(name)
		if err != nil {
			t.Fatalf("codec %s: %v", name, err)
		}
		if codec.Name() != name {
			t.Fatalf("codec name = %q, want %q", codec.Name(), name)
		}

		var buf bytes.Buffer
		w, err := codec.Writer(&buf)
		if err != nil {
			t.Fatalf("%s writer: %v", name, err)
		}
		if _, err := io.WriteString(w, payload); err != nil {
			t.Fatalf("%s write: %v", name, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("%s close: %v", name, err)
		}
		if buf.Len() >= len(payload) {
			t.Fatalf("%s did not compress repetitive payload: %d >= %d", name, buf.Len(), len(payload))
		}

		r, err := codec.Reader(&buf)
		if err != nil {
			t.Fatalf("%s reader: %v", name, err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%s read: %v", name, err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("%s reader close: %v", name, err)
		}
		if string(got) != payload {
			t.Fatalf("%s round trip mismatch", name)
		}
	}
}

// TestCodecByNameDefaultsToZstd checks the empty-name default.
func TestCodecByNameDefaultsToZstd(t *testing.T) {
	codec, err := CodecByName("")
	if err != nil {
		t.Fatalf("CodecByName(\"\") error = %v", err)
	}
	if codec.Name() != "zstd" {
		t.Fatalf("default codec = %q, want zstd", codec.Name())
	}
}

// TestCodecByNameRejectsUnknown checks the error for unsupported codecs.
func TestCodecByNameRejectsUnknown(t *testing.T) {
	if _, err := CodecByName("brotli"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("error = %v, want ErrUnknownCodec", err)
	}
}
