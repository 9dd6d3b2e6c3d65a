package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Archive container identity. Entry metadata records are written as
// placeholders first and patched in place once each stream's compressed
// size is known.
const (
	Magic   = "CARC"
	Version = uint8(1)
)

// ManifestName is the document descriptor the host needs to rebuild a container.
const ManifestName = "Document.xml"

// entryMeta describes one archived file inside the CARC header.
type entryMeta struct {
	RelPath        string
	OriginalSize   uint64
	CompressedSize uint64
}

// metaRecordSize returns the on-disk size of one entry metadata record.
func metaRecordSize(relPath string) int {
	return 2 + len(relPath) + 8 + 8
}

// writeHeader writes archive identity, codec name, and entry count.
func writeHeader(f *os.File, codecName string, numEntries int) error {
	if _, err := f.Write([]byte(Magic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(f, binary.BigEndian, Version); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(f, binary.BigEndian, uint8(len(codecName))); err != nil {
		return fmt.Errorf("write codec name length: %w", err)
	}
	if _, err := f.Write([]byte(codecName)); err != nil {
		return fmt.Errorf("write codec name: %w", err)
	}
	if err := binary.Write(f, binary.BigEndian, uint32(numEntries)); err != nil {
		return fmt.Errorf("write entry count: %w", err)
	}
	return nil
}

// patchEntryMeta rewrites one entry metadata record at a known offset.
func patchEntryMeta(f *os.File, offset int64, meta entryMeta) error {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek entry metadata: %w", err)
	}

	relPathBytes := []byte(meta.RelPath)
	if err := binary.Write(f, binary.BigEndian, uint16(len(relPathBytes))); err != nil {
		return fmt.Errorf("write path length: %w", err)
	}
	if _, err := f.Write(relPathBytes); err != nil {
		return fmt.Errorf("write path: %w", err)
	}
	if err := binary.Write(f, binary.BigEndian, meta.OriginalSize); err != nil {
		return fmt.Errorf("write original size: %w", err)
	}
	if err := binary.Write(f, binary.BigEndian, meta.CompressedSize); err != nil {
		return fmt.Errorf("write compressed size: %w", err)
	}
	return nil
}

// readHeader reads and validates the archive header and entry metadata.
// It returns the codec name, entries, and the offset of the first stream.
func readHeader(f *os.File) (string, []entryMeta, int64, error) {
	br := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return "", nil, 0, fmt.Errorf("%w: short header", ErrNotContainer)
	}
	if string(magic[:]) != Magic {
		return "", nil, 0, fmt.Errorf("%w: bad magic %q", ErrNotContainer, string(magic[:]))
	}

	var version uint8
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return "", nil, 0, fmt.Errorf("read version: %w", err)
	}
	if version != Version {
		return "", nil, 0, fmt.Errorf("unsupported archive version: %d", version)
	}

	var codecNameLen uint8
	if err := binary.Read(br, binary.BigEndian, &codecNameLen); err != nil {
		return "", nil, 0, fmt.Errorf("read codec name length: %w", err)
	}
	codecName := make([]byte, codecNameLen)
	if _, err := io.ReadFull(br, codecName); err != nil {
		return "", nil, 0, fmt.Errorf("read codec name: %w", err)
	}

	var numEntries uint32
	if err := binary.Read(br, binary.BigEndian, &numEntries); err != nil {
		return "", nil, 0, fmt.Errorf("read entry count: %w", err)
	}

	entries := make([]entryMeta, numEntries)
	for i := range entries {
		var relPathLen uint16
		if err := binary.Read(br, binary.BigEndian, &relPathLen); err != nil {
			return "", nil, 0, fmt.Errorf("read path length %d: %w", i, err)
		}
		relPathBytes := make([]byte, relPathLen)
		if _, err := io.ReadFull(br, relPathBytes); err != nil {
			return "", nil, 0, fmt.Errorf("read path %d: %w", i, err)
		}
		entries[i].RelPath = string(relPathBytes)

		if err := binary.Read(br, binary.BigEndian, &entries[i].OriginalSize); err != nil {
			return "", nil, 0, fmt.Errorf("read original size %d: %w", i, err)
		}
		if err := binary.Read(br, binary.BigEndian, &entries[i].CompressedSize); err != nil {
			return "", nil, 0, fmt.Errorf("read compressed size %d: %w", i, err)
		}
	}

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, 0, fmt.Errorf("seek current: %w", err)
	}
	dataOffset := pos - int64(br.Buffered())

	return string(codecName), entries, dataOffset, nil
}
