package fetch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arc-language/brewlet/pkg/fetch"
	"github.com/arc-language/brewlet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/nix"
)

func mustHash(t *testing.T, hex string) nix.Hash {
	t.Helper()
	h, err := nix.ParseHash("sha256:" + hex)
	require.NoError(t, err)
	return h
}

func TestFetchVerifiesAndCaches(t *testing.T) {
	archive := testutil.TarGz(t, testutil.File{Name: "qcd-0.1.0/qcd.zsh", Body: "qcd() { :; }\n"})
	srv := testutil.Serve(t, archive)

	f := fetch.New(&fetch.Config{CachePath: t.TempDir()})
	expected := mustHash(t, testutil.SHA256(archive))

	res, err := f.Fetch(context.Background(), srv.URL+"/v0.1.0.tar.gz", "qcd-0.1.0.tar.gz", expected)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int64(len(archive)), res.Size)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, archive, data)

	res, err = f.Fetch(context.Background(), srv.URL+"/v0.1.0.tar.gz", "qcd-0.1.0.tar.gz", expected)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, srv.Hits(), "second fetch is served from the cache")
}

func TestFetchHashMismatch(t *testing.T) {
	archive := testutil.TarGz(t, testutil.File{Name: "qcd.zsh", Body: "tampered\n"})
	srv := testutil.Serve(t, archive)

	cache := t.TempDir()
	f := fetch.New(&fetch.Config{CachePath: cache})
	wrong := mustHash(t, testutil.SHA256([]byte("something else")))

	_, err := f.Fetch(context.Background(), srv.URL, "qcd.tar.gz", wrong)
	require.ErrorIs(t, err, fetch.ErrHashMismatch)

	entries, err := os.ReadDir(filepath.Join(cache, "downloads"))
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is left behind after a mismatch")
}

func TestFetchStaleCacheIsReplaced(t *testing.T) {
	archive := testutil.TarGz(t, testutil.File{Name: "qcd.zsh", Body: "fresh\n"})
	srv := testutil.Serve(t, archive)

	cache := t.TempDir()
	stale := filepath.Join(cache, "downloads", "qcd.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0644))

	f := fetch.New(&fetch.Config{CachePath: cache})
	res, err := f.Fetch(context.Background(), srv.URL, "qcd.tar.gz", mustHash(t, testutil.SHA256(archive)))
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, srv.Hits())
}

func TestFetchDownloadError(t *testing.T) {
	srv := testutil.Serve(t, nil)
	url := srv.URL
	srv.Close()

	f := fetch.New(&fetch.Config{CachePath: t.TempDir()})
	_, err := f.Fetch(context.Background(), url, "qcd.tar.gz", mustHash(t, testutil.SHA256(nil)))
	assert.ErrorIs(t, err, fetch.ErrDownload)
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	assert.NoError(t, fetch.VerifyFile(path, mustHash(t, testutil.SHA256([]byte("hello")))))
	assert.ErrorIs(t, fetch.VerifyFile(path, mustHash(t, testutil.SHA256([]byte("bye")))), fetch.ErrHashMismatch)
}
