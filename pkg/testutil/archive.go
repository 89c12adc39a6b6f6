// Package testutil builds in-memory source archives and servers for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"
)

// File is one regular file inside a test archive
type File struct {
	Name string
	Body string
	Mode int64
}

// TarGz packs files into a gzip compressed tarball
func TarGz(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	writeTar(t, gzw, files)
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

// TarXz packs files into an xz compressed tarball
func TarXz(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	writeTar(t, xzw, files)
	require.NoError(t, xzw.Close())
	return buf.Bytes()
}

func writeTar(t testing.TB, w io.Writer, files []File) {
	t.Helper()
	tw := tar.NewWriter(w)

	dirs := map[string]bool{}
	for _, f := range files {
		for i := 0; i < len(f.Name); i++ {
			if f.Name[i] == '/' {
				dirs[f.Name[:i+1]] = true
			}
		}
	}
	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	for _, d := range sorted {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: d, Typeflag: tar.TypeDir, Mode: 0755}))
	}

	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.Name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(f.Body)),
		}))
		_, err := tw.Write([]byte(f.Body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

// Nar packs files into a NAR whose root is a directory
func Nar(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	writeNar(t, &buf, files)
	return buf.Bytes()
}

// NarXz packs files into an xz compressed NAR
func NarXz(t testing.TB, files ...File) []byte {
	t.Helper()
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	writeNar(t, xzw, files)
	require.NoError(t, xzw.Close())
	return buf.Bytes()
}

// NarFile packs a NAR whose root is a single regular file
func NarFile(t testing.TB, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	nw := nar.NewWriter(&buf)
	require.NoError(t, nw.WriteHeader(&nar.Header{Mode: 0o644, Size: int64(len(body))}))
	_, err := io.WriteString(nw, body)
	require.NoError(t, err)
	require.NoError(t, nw.Close())
	return buf.Bytes()
}

// writeNar emits entries depth first with siblings in name order, the
// only order a NAR can hold
func writeNar(t testing.TB, w io.Writer, files []File) {
	t.Helper()
	nw := nar.NewWriter(w)

	byPath := map[string]*File{}
	dirs := map[string]bool{}
	for i := range files {
		f := &files[i]
		byPath[f.Name] = f
		parts := strings.Split(f.Name, "/")
		for j := 1; j < len(parts); j++ {
			dirs[strings.Join(parts[:j], "/")] = true
		}
	}

	paths := make([]string, 0, len(byPath)+len(dirs))
	for p := range byPath {
		paths = append(paths, p)
	}
	for d := range dirs {
		paths = append(paths, d)
	}
	sort.Slice(paths, func(i, j int) bool {
		a, b := strings.Split(paths[i], "/"), strings.Split(paths[j], "/")
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})

	require.NoError(t, nw.WriteHeader(&nar.Header{Mode: fs.ModeDir | 0o755}))
	for _, p := range paths {
		f, ok := byPath[p]
		if !ok {
			require.NoError(t, nw.WriteHeader(&nar.Header{Path: p, Mode: fs.ModeDir | 0o755}))
			continue
		}
		mode := fs.FileMode(0o644)
		if f.Mode&0o111 != 0 {
			mode = 0o755
		}
		require.NoError(t, nw.WriteHeader(&nar.Header{Path: p, Mode: mode, Size: int64(len(f.Body))}))
		_, err := io.WriteString(nw, f.Body)
		require.NoError(t, err)
	}
	require.NoError(t, nw.Close())
}

// SHA256 returns the hex digest of data
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Server serves body at every path and counts requests
type Server struct {
	*httptest.Server
	hits atomic.Int32
}

// Hits reports how many requests the server has answered
func (s *Server) Hits() int {
	return int(s.hits.Load())
}

// Serve starts a server that answers every request with body
func Serve(t testing.TB, body []byte) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// QcdStub is a POSIX sh stand-in for qcd.zsh honouring the same
// command surface: `qcd add` reads a directory and a name from stdin,
// `qcd <name>` changes directory, `qcd help` prints usage.
const QcdStub = `qcd() {
  case "$1" in
    add)
      read -r _qcd_dir
      read -r _qcd_name
      printf '%s=%s\n' "$_qcd_name" "$_qcd_dir" >> "$QCD_STORE"
      ;;
    help)
      echo "usage: qcd add | qcd <name>"
      ;;
    *)
      _qcd_dest=$(grep "^$1=" "$QCD_STORE" | tail -n 1 | cut -d= -f2-)
      [ -n "$_qcd_dest" ] || return 1
      cd "$_qcd_dest"
      ;;
  esac
}
`
