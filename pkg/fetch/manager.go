// manager.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arc-language/brewlet/pkg/logging"
	"zombiezen.com/go/nix"
)

var (
	// ErrHashMismatch is returned when an archive does not match its declared hash
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrDownload is returned when the archive cannot be retrieved
	ErrDownload = errors.New("download failed")
)

// New creates a new Fetcher
func New(cfg *Config) *Fetcher {
	if cfg == nil {
		cfg = &Config{}
	}

	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(os.TempDir(), "brewlet")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := logging.GetLogger("fetch")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	f := &Fetcher{
		client: NewClientWithTimeout(cfg.Timeout),
		config: cfg,
		logger: logger,
	}

	f.logger.Debug().
		Str("cachePath", cfg.CachePath).
		Dur("timeout", cfg.Timeout).
		Msg("Initialized fetcher")

	return f
}

// Fetch makes sure a copy of url matching expected sits in the cache
// under name. A cached archive that still matches is reused; anything
// else is downloaded again. The archive only appears at its final path
// once its hash has been checked.
func (f *Fetcher) Fetch(ctx context.Context, url, name string, expected nix.Hash) (*Result, error) {
	destPath := filepath.Join(f.config.CachePath, "downloads", name)

	if info, err := os.Stat(destPath); err == nil {
		f.logger.Debug().Str("path", destPath).Msg("Found cached archive, verifying")
		if err := VerifyFile(destPath, expected); err == nil {
			f.logger.Info().Str("path", destPath).Msg("Using cached archive")
			return &Result{Path: destPath, Size: info.Size(), Cached: true, Hash: expected.SRI()}, nil
		}
		f.logger.Warn().Str("path", destPath).Msg("Cached archive does not match, downloading again")
		if err := os.Remove(destPath); err != nil {
			return nil, fmt.Errorf("removing stale archive: %w", err)
		}
	}

	f.logger.Debug().Str("url", url).Msg("Step 1: Downloading archive...")
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	partPath := destPath + ".incomplete"
	out, err := os.Create(partPath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	hasher := nix.NewHasher(expected.Type())
	written, err := f.client.Download(ctx, url, io.MultiWriter(out, hasher))
	closeErr := out.Close()
	if err != nil {
		os.Remove(partPath)
		f.logger.Error().Err(err).Str("url", url).Msg("Failed to download archive")
		return nil, fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return nil, fmt.Errorf("writing file: %w", closeErr)
	}
	f.logger.Debug().Int64("bytes", written).Msg("  ✓ Download complete")

	f.logger.Debug().Msg("Step 2: Verifying hash...")
	actual := hasher.SumHash()
	if err := compareHash(expected, actual); err != nil {
		os.Remove(partPath)
		return nil, err
	}
	f.logger.Debug().Str("hash", actual.SRI()).Msg("  ✓ Hash verified")

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return nil, fmt.Errorf("moving archive into cache: %w", err)
	}

	return &Result{Path: destPath, Size: written, Hash: actual.SRI()}, nil
}

// VerifyFile hashes the file at path and compares it against expected
func VerifyFile(path string, expected nix.Hash) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	hasher := nix.NewHasher(expected.Type())
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("computing hash: %w", err)
	}

	return compareHash(expected, hasher.SumHash())
}

func compareHash(expected, actual nix.Hash) error {
	if expected.SRI() != actual.SRI() {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected.Base16(), actual.Base16())
	}
	return nil
}
