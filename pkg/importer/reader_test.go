package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/observability"
)

func TestFileReader_Caches(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	reader := NewFileReader(0, 0, metrics)
	path := writeFile(t, filepath.Join(tempDir(t), "a.scss"), "v1")

	got, err := reader.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	got, err = reader.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	reader.Invalidate(path)
	got, err = reader.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FileCacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FileCacheMissesTotal))

	reader.Purge()
	assert.Zero(t, reader.Len())
}

func TestFileReader_Expires(t *testing.T) {
	reader := NewFileReader(4, 20*time.Millisecond, nil)
	path := writeFile(t, filepath.Join(tempDir(t), "a.scss"), "v1")

	_, err := reader.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.Len())

	assert.Eventually(t, func() bool { return reader.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestFileReader_NilReadsDisk(t *testing.T) {
	var reader *FileReader
	path := writeFile(t, filepath.Join(tempDir(t), "a.scss"), "disk")

	got, err := reader.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "disk", got)
	assert.Zero(t, reader.Len())
	reader.Invalidate(path)
	reader.Purge()

	_, err = reader.Read(filepath.Join(filepath.Dir(path), "missing.scss"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileReader_SymlinkedPathSharesEntry(t *testing.T) {
	realDir := tempDir(t)
	link := filepath.Join(tempDir(t), "link")
	require.NoError(t, os.Symlink(realDir, link))
	realPath := writeFile(t, filepath.Join(realDir, "partials", "_a.scss"), "v1")
	linkPath := filepath.Join(link, "partials", "_a.scss")

	reader := NewFileReader(0, 0, nil)
	got, err := reader.Read(linkPath)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	got, err = reader.Read(realPath)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, 1, reader.Len())

	require.NoError(t, os.WriteFile(realPath, []byte("v2"), 0644))
	reader.Invalidate(realPath)
	assert.Zero(t, reader.Len())

	got, err = reader.Read(linkPath)
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestFileReader_InvalidateRemovedFile(t *testing.T) {
	realDir := tempDir(t)
	link := filepath.Join(tempDir(t), "link")
	require.NoError(t, os.Symlink(realDir, link))
	realPath := writeFile(t, filepath.Join(realDir, "_gone.scss"), "v1")

	reader := NewFileReader(0, 0, nil)
	_, err := reader.Read(filepath.Join(link, "_gone.scss"))
	require.NoError(t, err)

	require.NoError(t, os.Remove(realPath))
	reader.Invalidate(realPath)
	assert.Zero(t, reader.Len())
}
