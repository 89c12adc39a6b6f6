// extract.go
package fetch

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"zombiezen.com/go/nix/nar"
)

// ErrUnsafePath is returned for archive entries that would land outside the destination
var ErrUnsafePath = errors.New("archive entry escapes destination")

// DetectFormat picks the archive format from a file name
func DetectFormat(name string) (ArchiveFormat, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz, nil
	case strings.HasSuffix(lower, ".nar.xz"):
		return FormatNarXz, nil
	case strings.HasSuffix(lower, ".nar"):
		return FormatNar, nil
	default:
		return "", fmt.Errorf("unsupported archive: %s", name)
	}
}

// Extract unpacks archivePath into destPath
func (f *Fetcher) Extract(archivePath, destPath string) error {
	format, err := DetectFormat(archivePath)
	if err != nil {
		return err
	}

	f.logger.Debug().
		Str("archive", archivePath).
		Str("dest", destPath).
		Str("format", string(format)).
		Msg("Step 3: Extracting archive...")

	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(destPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", destPath, err)
	}

	var r io.Reader = bufio.NewReader(file)
	switch format {
	case FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case FormatTarXz, FormatNarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		r = xzr
	}

	var count int
	switch format {
	case FormatNar, FormatNarXz:
		count, err = extractNAR(r, destPath)
	default:
		count, err = extractTar(r, destPath)
	}
	if err != nil {
		return err
	}

	f.logger.Debug().Int("files", count).Msg("  ✓ Extraction complete")
	return nil
}

func extractTar(r io.Reader, destPath string) (int, error) {
	tr := tar.NewReader(r)
	fileCount := 0

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fileCount, fmt.Errorf("reading tar entry: %w", err)
		}

		targetPath, err := safeJoin(destPath, header.Name)
		if err != nil {
			return fileCount, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fileCount, fmt.Errorf("creating directory %s: %w", targetPath, err)
			}

		case tar.TypeReg:
			if err := writeFile(targetPath, tr, os.FileMode(header.Mode).Perm(), header.Size); err != nil {
				return fileCount, err
			}
			fileCount++

		default:
			// Symlinks and devices are never needed from a script tarball
		}
	}

	return fileCount, nil
}

func extractNAR(r io.Reader, destPath string) (int, error) {
	nr := nar.NewReader(r)
	fileCount := 0

	for {
		hdr, err := nr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fileCount, fmt.Errorf("reading NAR entry: %w", err)
		}

		targetPath, err := safeJoin(destPath, hdr.Path)
		if err != nil {
			return fileCount, err
		}

		switch hdr.Mode.Type() {
		case os.ModeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fileCount, fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
		case 0:
			if hdr.Path == "" {
				return fileCount, fmt.Errorf("NAR root is a single file, expected a directory")
			}
			perm := os.FileMode(0644)
			if hdr.Mode&0111 != 0 {
				perm = 0755
			}
			if err := writeFile(targetPath, nr, perm, hdr.Size); err != nil {
				return fileCount, err
			}
			fileCount++
		}
	}

	return fileCount, nil
}

func writeFile(targetPath string, r io.Reader, perm os.FileMode, size int64) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", targetPath, err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("writing file %s: %w", targetPath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("writing file %s: %w", targetPath, closeErr)
	}
	if written != size {
		return fmt.Errorf("file size mismatch for %s: expected %d, got %d", targetPath, size, written)
	}
	return nil
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// SourceRoot returns the directory a build should run in. Tag tarballs
// wrap everything in one top-level directory; that directory is
// returned when it is the only entry.
func SourceRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
