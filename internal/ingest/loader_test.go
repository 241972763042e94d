package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Holerite.PDF", "%PDF-1.4 fake")

	r, err := NewLoader(nil, 0, true).LoadPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.FileExt)
	assert.Equal(t, "Holerite.PDF", r.Document.Name)
	assert.Equal(t, "application/pdf", r.Document.MediaType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), r.Document.Content)
	assert.Len(t, r.HashHex, 64)
	assert.EqualValues(t, 13, r.Size)
}

func TestLoadPathRejects(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(nil, 4, true)

	_, err := l.LoadPath(context.Background(), writeFile(t, dir, "notes.txt", "x"))
	assert.ErrorIs(t, err, common.ErrUnsupported)

	_, err = l.LoadPath(context.Background(), writeFile(t, dir, "big.png", "12345"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = l.LoadPath(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestLoadDirectorySortedFilteredHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.png", "b")
	writeFile(t, dir, "a.pdf", "a")
	writeFile(t, dir, "sub/c.jpeg", "c")
	writeFile(t, dir, "readme.md", "skip")
	writeFile(t, dir, ".hidden.pdf", "skip")
	writeFile(t, dir, ".cache/d.pdf", "skip")

	results, stats, err := NewLoader(nil, 0, true).LoadDirectory(context.Background(), dir)
	require.NoError(t, err)

	docs := Documents(results)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.pdf", docs[0].Name)
	assert.Equal(t, "b.png", docs[1].Name)
	assert.Equal(t, "c.jpeg", docs[2].Name)
	assert.Equal(t, "image/jpeg", docs[2].MediaType)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 3, stats.Succeeded)
	assert.EqualValues(t, 0, stats.Failed)
}

func TestLoadDirectoryIncludesHiddenWhenAsked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".hidden.pdf", "x")

	results, _, err := NewLoader(nil, 0, false).LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, Documents(results), 1)
}

func TestLoadDirectoryRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.pdf", "1")
	writeFile(t, dir, "huge.pdf", "0123456789")

	results, stats, err := NewLoader(nil, 5, true).LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Failed)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Err, "huge.pdf sorts first")
	assert.Len(t, Documents(results), 1)
}

func TestLoadDirectoryErrors(t *testing.T) {
	l := NewLoader(nil, 0, true)
	_, _, err := l.LoadDirectory(context.Background(), " ")
	assert.Error(t, err)

	_, _, err = l.LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadPathsStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", "a")
	b := writeFile(t, dir, "b.doc", "b")
	c := writeFile(t, dir, "c.pdf", "c")

	results, err := NewLoader(nil, 0, true).LoadPaths(context.Background(), []string{a, b, c})
	assert.Error(t, err)
	assert.Len(t, results, 1)
}
