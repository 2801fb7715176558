package packaging

import (
	"path/filepath"
	"strings"
)

// ArchiveExtension is the extension of archive artifacts. Files carrying it are
// never packed into a new artifact.
const ArchiveExtension = ".zip"

// ArtifactInfo describes an archive produced from a directory tree.
type ArtifactInfo struct {
	// Path is the final location of the archive.
	Path string
	// Size is the archive size in bytes.
	Size int64
	// Entries are the slash-separated entry names in the order they were written.
	Entries []string
}

// SizeKB returns the archive size in kilobytes.
func (a *ArtifactInfo) SizeKB() float64 {
	return float64(a.Size) / 1024
}

// IsArchiveArtifact reports whether name looks like an archive artifact.
func IsArchiveArtifact(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ArchiveExtension)
}
