// installer.go
package keg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/brewlet/pkg/bootstrap"
	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/rs/zerolog"
)

// ErrScriptNotFound is returned when the source tree lacks the formula's script
var ErrScriptNotFound = errors.New("script not found in source tree")

// Installer copies a verified, extracted source tree into a keg
type Installer struct {
	prefix string
	logger zerolog.Logger
}

// Receipt lists what an install put on disk
type Receipt struct {
	Layout    Layout
	Script    string // <pkgshare>/<script>
	Bootstrap string // <pkgshare>/install.zsh, empty for the manual revision
}

// NewInstaller creates an installer rooted at prefix
func NewInstaller(prefix string) *Installer {
	return &Installer{
		prefix: prefix,
		logger: logging.GetLogger("keg"),
	}
}

// Layout returns where f installs
func (i *Installer) Layout(f *formula.Formula) Layout {
	return Layout{Prefix: i.prefix, Name: f.Name, Version: f.Version}
}

// Install copies f's script from srcRoot into pkgshare, writes the
// bootstrap helper when f asks for one, and points opt/ at the keg.
// Running it again with the same inputs leaves the same files behind.
func (i *Installer) Install(srcRoot string, f *formula.Formula) (*Receipt, error) {
	layout := i.Layout(f)
	src := filepath.Join(srcRoot, f.ScriptName())

	info, err := os.Stat(src)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, f.ScriptName())
	}

	pkgshare := layout.PkgShare()
	i.logger.Debug().Str("pkgshare", pkgshare).Msg("Step 4: Installing into pkgshare...")
	if err := os.MkdirAll(pkgshare, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", pkgshare, err)
	}

	receipt := &Receipt{Layout: layout, Script: filepath.Join(pkgshare, f.ScriptName())}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	if err := writeAtomic(receipt.Script, in, 0644); err != nil {
		return nil, err
	}
	i.logger.Debug().Str("path", receipt.Script).Msg("  ✓ Script installed")

	if f.Bootstrap {
		script, err := bootstrap.Script(f.Name, filepath.Join(layout.OptPkgShare(), f.ScriptName()))
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", formula.BootstrapScript, err)
		}
		receipt.Bootstrap = filepath.Join(pkgshare, formula.BootstrapScript)
		if err := writeAtomic(receipt.Bootstrap, strings.NewReader(script), 0755); err != nil {
			return nil, err
		}
		i.logger.Debug().Str("path", receipt.Bootstrap).Msg("  ✓ Bootstrap script written")
	} else if f.ScriptName() != formula.BootstrapScript {
		stale := filepath.Join(pkgshare, formula.BootstrapScript)
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing %s: %w", stale, err)
		}
	}

	if err := i.link(layout); err != nil {
		return nil, err
	}
	i.logger.Debug().Str("opt", layout.Opt()).Msg("  ✓ Linked opt")

	return receipt, nil
}

// Installed reports whether f's script is present in its keg
func (i *Installer) Installed(f *formula.Formula) bool {
	info, err := os.Stat(filepath.Join(i.Layout(f).PkgShare(), f.ScriptName()))
	return err == nil && info.Mode().IsRegular()
}

// link points opt/<name> at the keg with a relative symlink, replacing
// any previous link in one rename
func (i *Installer) link(layout Layout) error {
	opt := layout.Opt()
	if err := os.MkdirAll(filepath.Dir(opt), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(opt), err)
	}

	target, err := filepath.Rel(filepath.Dir(opt), layout.Keg())
	if err != nil {
		return fmt.Errorf("resolving link target: %w", err)
	}

	if current, err := os.Readlink(opt); err == nil && current == target {
		return nil
	}

	tmp := opt + ".tmp"
	os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("creating symlink %s -> %s: %w", opt, target, err)
	}
	if err := os.Rename(tmp, opt); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", opt, err)
	}
	return nil
}

// writeAtomic writes r to path through a temporary file in the same
// directory so readers never see a half written file
func writeAtomic(path string, r io.Reader, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing %s: %w", path, err)
	}
	return nil
}
