package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SchemeRouting(t *testing.T) {
	d := NewDispatcher(Options{})

	f, err := d.ForLocation("https://example.com/data.csv")
	require.NoError(t, err)
	assert.IsType(t, &HTTPFetcher{}, f)

	f, err = d.ForLocation("ftp://example.com/data.csv")
	require.NoError(t, err)
	assert.IsType(t, &FTPFetcher{}, f)

	f, err = d.ForLocation("file:///tmp/data.csv")
	require.NoError(t, err)
	assert.IsType(t, &LocalFetcher{}, f)

	f, err = d.ForLocation("/tmp/data.csv")
	require.NoError(t, err)
	assert.IsType(t, &LocalFetcher{}, f)

	_, err = d.ForLocation("s3://bucket/data.csv")
	assert.Error(t, err)
}

func TestLocalFetcher_Download(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	lf := &LocalFetcher{}
	rc, err := lf.Download(context.Background(), "file://"+path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestLocalFetcher_DownloadToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	dst := filepath.Join(dir, "dst.csv")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	lf := &LocalFetcher{}
	n, err := lf.DownloadToFile(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalFetcher_Missing(t *testing.T) {
	lf := &LocalFetcher{}
	_, err := lf.Download(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
