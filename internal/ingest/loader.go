package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
)

// Loader reads documents from disk.
type Loader struct {
	logger     *slog.Logger
	maxBytes   int64 // 0 = unlimited
	skipHidden bool
}

func NewLoader(logger *slog.Logger, maxBytes int64, skipHidden bool) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, maxBytes: maxBytes, skipHidden: skipHidden}
}

// LoadPath reads a single file into a Document.
func (l *Loader) LoadPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{SourcePath: path}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, common.NewAppError("UNSUPPORTED_EXTENSION",
			fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupported)
	}
	out.FileExt = ext

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return out, common.NewAppError("NOT_A_FILE", abs+" is a directory", common.ErrInvalidInput)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return out, common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%s is %d bytes, limit is %d", filepath.Base(abs), info.Size(), l.maxBytes), common.ErrInvalidInput)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)

	out.HashHex = hex.EncodeToString(sum[:])
	out.Size = int64(len(data))
	out.ModifiedAt = info.ModTime().UTC()
	out.Document = ocr.Document{
		Name:      filepath.Base(abs),
		MediaType: constants.MediaTypeForExt(ext),
		Content:   data,
	}
	l.logger.Debug("file loaded", "path", abs, "bytes", out.Size, "sha256", out.HashHex)
	return out, nil
}

// LoadPaths loads files in the given order, stopping at the first failure.
func (l *Loader) LoadPaths(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		r, err := l.LoadPath(ctx, p)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", p, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// LoadDirectory walks root, keeps files with allowed extensions, skips hidden
// entries if requested, and loads the matches in lexical path order.
// Per-file failures are recorded in the result and counted, not returned.
func (l *Loader) LoadDirectory(ctx context.Context, root string) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []FileResult
		stats   DirStats
		matched []string
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, FileResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if l.skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		matched = append(matched, path)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Strings(matched)
	for _, path := range matched {
		r, err := l.LoadPath(ctx, path)
		if err != nil {
			l.logger.Warn("skipping file", "path", path, "err", err)
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			continue
		}
		results = append(results, r)
		stats.Succeeded++
	}

	l.logger.Info("directory loaded", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats, nil
}

// Documents returns the successfully loaded documents, preserving order.
func Documents(results []FileResult) []ocr.Document {
	docs := make([]ocr.Document, 0, len(results))
	for _, r := range results {
		if r.Err == "" && r.Document.Name != "" {
			docs = append(docs, r.Document)
		}
	}
	return docs
}
