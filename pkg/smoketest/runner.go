// runner.go

// Package smoketest checks an installed bookmark script end to end: add a
// bookmark in a throwaway store, jump to it, and compare the working
// directory with where it should be.
package smoketest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrFailed is returned when the round trip does not pass, either
	// because the tool exited with an error or because it went elsewhere
	ErrFailed = errors.New("smoke test failed")

	// ErrMismatch is returned when the shell ends up somewhere other than the bookmark
	ErrMismatch = fmt.Errorf("%w: working directory mismatch", ErrFailed)
)

const (
	// DefaultShell runs the test the way an interactive user would load the script
	DefaultShell = "zsh"

	// DefaultBookmark is the bookmark name used when none is given
	DefaultBookmark = "t"
)

// DefaultShellArgs start a login shell running a command string
var DefaultShellArgs = []string{"-lc"}

// The target and name travel through the environment so that no path
// is ever spliced into the command string.
const roundTrip = `. "$BREWLET_SCRIPT" || exit 1
export ` + formula.StoreEnv + `="$BREWLET_STORE"
printf '%s\n%s\n' "$BREWLET_TARGET" "$BREWLET_BOOKMARK" | "$BREWLET_COMMAND" add >/dev/null || exit 1
"$BREWLET_COMMAND" "$BREWLET_BOOKMARK" || exit 1
pwd`

// Config controls a test run
type Config struct {
	Shell     string   // Default: zsh
	ShellArgs []string // Default: -lc
	Script    string   // Installed script to source
	Command   string   // Function the script defines; default qcd
	Target    string   // Directory to bookmark; a fresh temp dir when empty
	Bookmark  string   // Default: t
	WorkDir   string   // Scratch space; a fresh temp dir when empty
}

// Result reports a run
type Result struct {
	Expected string
	Actual   string
}

// Runner executes the round trip
type Runner struct {
	logger zerolog.Logger
}

// NewRunner creates a runner
func NewRunner() *Runner {
	return &Runner{logger: logging.GetLogger("smoketest")}
}

// Run sources cfg.Script in a fresh shell, stores cfg.Target under
// cfg.Bookmark, jumps to it, and checks the shell's working directory.
// A mismatch returns the result together with ErrMismatch; a tool that
// exits with an error yields ErrFailed.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Script == "" {
		return nil, fmt.Errorf("script path is required")
	}
	if _, err := os.Stat(cfg.Script); err != nil {
		return nil, fmt.Errorf("installed script: %w", err)
	}
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if len(cfg.ShellArgs) == 0 {
		cfg.ShellArgs = DefaultShellArgs
	}
	if cfg.Command == "" {
		cfg.Command = formula.QcdName
	}
	if cfg.Bookmark == "" {
		cfg.Bookmark = DefaultBookmark
	}
	if strings.ContainsAny(cfg.Bookmark, "\n=") {
		return nil, fmt.Errorf("invalid bookmark name %q", cfg.Bookmark)
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "brewlet-test-*")
		if err != nil {
			return nil, fmt.Errorf("creating scratch directory: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	target := cfg.Target
	if target == "" {
		target = filepath.Join(workDir, "target")
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return nil, fmt.Errorf("creating target: %w", err)
	}

	store := filepath.Join(workDir, "bookmarks.zsh")
	if err := os.WriteFile(store, nil, 0644); err != nil {
		return nil, fmt.Errorf("creating bookmark store: %w", err)
	}

	args := append(append([]string{}, cfg.ShellArgs...), roundTrip)
	cmd := exec.CommandContext(ctx, cfg.Shell, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"PWD="+workDir,
		"HOME="+workDir,
		"ZDOTDIR="+workDir,
		"BREWLET_SCRIPT="+cfg.Script,
		"BREWLET_STORE="+store,
		"BREWLET_TARGET="+target,
		"BREWLET_BOOKMARK="+cfg.Bookmark,
		"BREWLET_COMMAND="+cfg.Command,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().
		Str("shell", cfg.Shell).
		Str("script", cfg.Script).
		Str("target", target).
		Msg("Step 5: Running smoke test...")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Error().Int("exit", exitErr.ExitCode()).Msg("  ✗ Smoke test failed")
			return nil, fmt.Errorf("%w: %s exited with %d: %s",
				ErrFailed, cfg.Shell, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("running %s: %w", cfg.Shell, err)
	}

	res := &Result{Expected: target, Actual: strings.TrimSpace(stdout.String())}
	if res.Actual != res.Expected {
		r.logger.Error().Str("expected", res.Expected).Str("actual", res.Actual).Msg("  ✗ Smoke test failed")
		return res, fmt.Errorf("%w: expected %q, got %q", ErrMismatch, res.Expected, res.Actual)
	}

	r.logger.Debug().Msg("  ✓ Smoke test passed")
	return res, nil
}
