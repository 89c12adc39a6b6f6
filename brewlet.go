// brewlet.go
package brewlet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arc-language/brewlet/pkg/bootstrap"
	"github.com/arc-language/brewlet/pkg/fetch"
	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/keg"
	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/arc-language/brewlet/pkg/smoketest"
	"github.com/rs/zerolog"
)

// Re-export types for convenience
type (
	Formula         = formula.Formula
	Layout          = keg.Layout
	Receipt         = keg.Receipt
	TestResult      = smoketest.Result
	BootstrapResult = bootstrap.Result
)

// Config configures a Manager
type Config struct {
	Prefix    string // Install prefix holding Cellar/ and opt/
	CachePath string // Download cache and staging area
	Timeout   time.Duration
	Shell     string   // Shell for the smoke test (default zsh)
	ShellArgs []string // Arguments before the command string (default -lc)
}

// InstallOptions configures Install
type InstallOptions struct {
	SkipTest bool // Do not run the smoke test after installing
}

// SetupOptions configures Setup
type SetupOptions struct {
	ZDotDir string // Overrides $ZDOTDIR
	Home    string // Overrides $HOME
	Sourced bool   // Output is eval'd by the calling shell
}

// Manager runs the fetch, verify, install, test pipeline for one formula
type Manager struct {
	formula   *formula.Formula
	config    *Config
	fetcher   *fetch.Fetcher
	installer *keg.Installer
	runner    *smoketest.Runner
	logger    zerolog.Logger
}

// NewManager validates f and prepares the pipeline
func NewManager(f *formula.Formula, config *Config) (*Manager, error) {
	if f == nil {
		return nil, &Error{Op: "load", Err: fmt.Errorf("%w: formula cannot be nil", ErrInvalidFormula)}
	}
	if err := f.Validate(); err != nil {
		return nil, &Error{Op: "load", Formula: f.Name, Err: err}
	}

	if config == nil {
		config = &Config{}
	}
	if config.Prefix == "" {
		return nil, &Error{Op: "load", Formula: f.Name, Err: fmt.Errorf("install prefix is required")}
	}
	if config.CachePath == "" {
		config.CachePath = filepath.Join(os.TempDir(), "brewlet")
	}

	logger := logging.GetLogger("brewlet").With().Str("formula", f.Name).Logger()

	return &Manager{
		formula:   f,
		config:    config,
		fetcher:   fetch.New(&fetch.Config{CachePath: config.CachePath, Timeout: config.Timeout, Logger: &logger}),
		installer: keg.NewInstaller(config.Prefix),
		runner:    smoketest.NewRunner(),
		logger:    logger,
	}, nil
}

// Formula returns the formula being managed
func (m *Manager) Formula() *formula.Formula {
	return m.formula
}

// Layout returns where the formula installs
func (m *Manager) Layout() keg.Layout {
	return m.installer.Layout(m.formula)
}

// Installed reports whether the formula's script is in place
func (m *Manager) Installed() bool {
	return m.installer.Installed(m.formula)
}

// Info summarizes a formula and its install state
type Info struct {
	Formula   *formula.Formula
	Layout    keg.Layout
	Installed bool
	Setup     string // "install.zsh" or "manual"
}

// Info reports what the formula is and where it lives
func (m *Manager) Info() *Info {
	info := &Info{
		Formula:   m.formula,
		Layout:    m.Layout(),
		Installed: m.Installed(),
		Setup:     "manual",
	}
	if m.formula.Bootstrap {
		info.Setup = formula.BootstrapScript
	}
	return info
}

// Install downloads and verifies the source archive, installs the
// script (and bootstrap helper) into the keg, then runs the smoke test
// unless told not to. Nothing is copied unless the hash matches. A
// failing smoke test leaves the install in place and is reported with
// the receipt.
func (m *Manager) Install(ctx context.Context, opts *InstallOptions) (*keg.Receipt, error) {
	if opts == nil {
		opts = &InstallOptions{}
	}
	f := m.formula
	done := logging.LogOperationStart(m.logger, "install")
	defer done()

	hash, err := f.Hash()
	if err != nil {
		return nil, &Error{Op: "verify", Formula: f.Name, Err: err}
	}

	archive, err := m.fetcher.Fetch(ctx, f.URL, f.ArchiveName(), hash)
	if err != nil {
		return nil, &Error{Op: "fetch", Formula: f.Name, Err: err}
	}
	m.logger.Info().Str("archive", archive.Path).Bool("cached", archive.Cached).Msg("Archive verified")

	if err := os.MkdirAll(m.config.CachePath, 0755); err != nil {
		return nil, &Error{Op: "extract", Formula: f.Name, Err: fmt.Errorf("%w: %w", ErrFileWrite, err)}
	}
	staging, err := os.MkdirTemp(m.config.CachePath, "stage-"+f.Name+"-*")
	if err != nil {
		return nil, &Error{Op: "extract", Formula: f.Name, Err: fmt.Errorf("%w: %w", ErrFileWrite, err)}
	}
	defer os.RemoveAll(staging)

	if err := m.fetcher.Extract(archive.Path, staging); err != nil {
		return nil, &Error{Op: "extract", Formula: f.Name, Err: fmt.Errorf("%w: %w", ErrExtract, err)}
	}

	srcRoot, err := fetch.SourceRoot(staging)
	if err != nil {
		return nil, &Error{Op: "extract", Formula: f.Name, Err: fmt.Errorf("%w: %w", ErrExtract, err)}
	}

	receipt, err := m.installer.Install(srcRoot, f)
	if err != nil {
		if !errors.Is(err, ErrScriptNotFound) {
			err = fmt.Errorf("%w: %w", ErrFileWrite, err)
		}
		return nil, &Error{Op: "install", Formula: f.Name, Err: err}
	}
	m.logger.Info().Str("pkgshare", receipt.Layout.PkgShare()).Msg("Installed")

	if opts.SkipTest {
		return receipt, nil
	}
	if _, err := m.Test(ctx); err != nil {
		return receipt, err
	}
	return receipt, nil
}

// Test runs the smoke test against the installed script
func (m *Manager) Test(ctx context.Context) (*smoketest.Result, error) {
	if !m.Installed() {
		return nil, &Error{Op: "test", Formula: m.formula.Name, Err: ErrNotInstalled}
	}

	res, err := m.runner.Run(ctx, smoketest.Config{
		Shell:     m.config.Shell,
		ShellArgs: m.config.ShellArgs,
		Script:    filepath.Join(m.Layout().OptPkgShare(), m.formula.ScriptName()),
		Command:   m.formula.Name,
	})
	if err != nil {
		return res, &Error{Op: "test", Formula: m.formula.Name, Err: err}
	}
	return res, nil
}

// Setup adds the source line to the user's startup file and writes the
// follow up to w, see bootstrap.Setup
func (m *Manager) Setup(opts SetupOptions, w io.Writer) (*bootstrap.Result, error) {
	if !m.Installed() {
		return nil, &Error{Op: "setup", Formula: m.formula.Name, Err: ErrNotInstalled}
	}

	if opts.Home == "" {
		opts.Home, _ = os.UserHomeDir()
	}

	res, err := bootstrap.Setup(bootstrap.Options{
		Name:       m.formula.Name,
		ScriptPath: filepath.Join(m.Layout().OptPkgShare(), m.formula.ScriptName()),
		ZDotDir:    opts.ZDotDir,
		Home:       opts.Home,
		Sourced:    opts.Sourced,
	}, w)
	if err != nil {
		if !errors.Is(err, bootstrap.ErrUnquotablePath) {
			err = fmt.Errorf("%w: %w", ErrFileWrite, err)
		}
		return nil, &Error{Op: "setup", Formula: m.formula.Name, Err: err}
	}
	return res, nil
}

// Caveats returns the post-install notes shown to the user
func (m *Manager) Caveats() string {
	f := m.formula
	if f.Caveats != "" {
		return f.Caveats
	}

	share := m.Layout().OptPkgShare()
	head := fmt.Sprintf("%s must be sourced to change directories in your current shell.\n\n", f.Name)
	if f.Bootstrap {
		return head + fmt.Sprintf("Run setup once (adds %s to ~/.zshrc and loads it now):\n  source %q\n",
			f.Name, filepath.Join(share, formula.BootstrapScript))
	}
	return head + fmt.Sprintf("Add this line to ~/.zshrc:\n  %s\n",
		bootstrap.SourceLine(filepath.Join(share, f.ScriptName())))
}
