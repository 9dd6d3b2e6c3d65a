package config

import (
	"os"
	"path/filepath"

	"cad-archiver/internal/domain"
)

// DefaultCodec is the archive codec used when settings carry none.
const DefaultCodec = "zstd"

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		HostPath:  "freecad",
		OutputDir: filepath.Join(homeDir, "Documents", "Archives"),
		Codec:     DefaultCodec,
	}
}
