// rcfile.go
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StartupFileName is the zsh startup file the source line goes into
const StartupFileName = ".zshrc"

// StartupFile resolves ${ZDOTDIR:-$HOME}/.zshrc
func StartupFile(zdotdir, home string) string {
	dir := zdotdir
	if dir == "" {
		dir = home
	}
	return filepath.Join(dir, StartupFileName)
}

// HasLine reports whether path contains line as a whole line
func HasLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	for _, l := range strings.Split(string(data), "\n") {
		if l == line {
			return true, nil
		}
	}
	return false, nil
}

// EnsureLine appends line to path, preceded by a blank line, unless an
// identical line is already there. The file is created when missing and
// existing content is never rewritten. It reports whether it appended.
func EnsureLine(path, line string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	present, err := HasLine(path, line)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	if _, err := fmt.Fprintf(f, "\n%s\n", line); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
