// tap.go
package tap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/go-git/go-git/v5"
)

// ErrFormulaNotFound is returned when no manifest in a tap matches the name
var ErrFormulaNotFound = errors.New("formula not found in tap")

// formulaDir is where taps keep their manifests
const formulaDir = "Formula"

var manifestExts = []string{".yaml", ".yml", ".toml"}

// Tap is a git repository of formula manifests checked out locally
type Tap struct {
	Name string // user/repo
	URL  string
	Dir  string
}

// New places the tap called name under root
func New(root, name, url string) (*Tap, error) {
	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(name, "..") {
		return nil, fmt.Errorf("tap name %q must look like user/repo", name)
	}
	return &Tap{Name: name, URL: url, Dir: filepath.Join(root, "taps", parts[0], parts[1])}, nil
}

// Sync clones the tap, or pulls it when a checkout already exists
func (t *Tap) Sync(ctx context.Context) error {
	logger := logging.GetLogger("tap")

	repo, err := git.PlainOpen(t.Dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Info().Str("tap", t.Name).Str("url", t.URL).Msg("Cloning tap")

		if err := os.MkdirAll(filepath.Dir(t.Dir), 0755); err != nil {
			return fmt.Errorf("creating tap directory: %w", err)
		}

		opts := &git.CloneOptions{URL: t.URL, SingleBranch: true}
		if isRemote(t.URL) {
			opts.Depth = 1
		}
		if _, err := git.PlainCloneContext(ctx, t.Dir, false, opts); err != nil {
			os.RemoveAll(t.Dir)
			return fmt.Errorf("git clone failed: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening tap %s: %w", t.Name, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}

	logger.Info().Str("tap", t.Name).Msg("Updating tap")
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", SingleBranch: true})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git pull failed: %w", err)
	}
	return nil
}

// Find loads the manifest for name, looking in Formula/ first and then
// at the top of the repository
func (t *Tap) Find(name string) (*formula.Formula, error) {
	if !formula.ValidName(name) {
		return nil, fmt.Errorf("%w: invalid formula name %q", ErrFormulaNotFound, name)
	}
	for _, dir := range []string{filepath.Join(t.Dir, formulaDir), t.Dir} {
		for _, ext := range manifestExts {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return formula.Load(path)
			}
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrFormulaNotFound, name, t.Name)
}

func isRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ssh", "git":
		return true
	}
	return false
}
