// Package ingest loads client documents from the local filesystem into
// ocr.Documents for the command-line tools.
package ingest

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
)

// FileResult is the per-file load outcome.
type FileResult struct {
	SourcePath string
	HashHex    string
	FileExt    string
	Size       int64
	ModifiedAt time.Time
	Document   ocr.Document
	Err        string
}

// DirStats summarizes a directory load.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// AllowedExt checks if a file extension is in the allowed set (pdf/jpg/jpeg/png).
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}
