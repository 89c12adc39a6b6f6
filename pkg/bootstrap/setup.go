// setup.go
package bootstrap

import (
	"fmt"
	"io"
	"strings"
)

// Options controls Setup
type Options struct {
	Name       string // Command the installed script defines, e.g. qcd
	ScriptPath string // Script to source, normally under opt/
	ZDotDir    string // $ZDOTDIR; empty falls back to Home
	Home       string // $HOME

	// Sourced says the caller will eval the output in its own shell.
	// Only then is the tool loaded and its help shown.
	Sourced bool
}

// Result reports what Setup did
type Result struct {
	StartupFile  string
	SourceLine   string
	FirstInstall bool
	Loaded       bool
}

// Setup adds the source line to the startup file and writes the follow
// up to w: shell code to eval when opts.Sourced, plain instructions
// otherwise.
func Setup(opts Options, w io.Writer) (*Result, error) {
	if err := CheckPath(opts.ScriptPath); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("command name is required")
	}
	if opts.ZDotDir == "" && opts.Home == "" {
		return nil, fmt.Errorf("neither ZDOTDIR nor HOME is set")
	}

	res := &Result{
		StartupFile: StartupFile(opts.ZDotDir, opts.Home),
		SourceLine:  SourceLine(opts.ScriptPath),
	}

	added, err := EnsureLine(res.StartupFile, res.SourceLine)
	if err != nil {
		return nil, err
	}
	res.FirstInstall = added

	var out string
	if opts.Sourced {
		out = evalCode(opts.Name, res)
		res.Loaded = true
	} else {
		out = instructions(opts.Name, res)
	}

	if _, err := io.WriteString(w, out); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	return res, nil
}

func evalCode(name string, res *Result) string {
	var b strings.Builder
	b.WriteString(res.SourceLine + "\n")
	b.WriteString("print -- " + shellQuote(name+": installed and loaded in this shell") + "\n")
	if res.FirstInstall {
		b.WriteString("print -- ''\n")
		b.WriteString(name + " help\n")
	}
	return b.String()
}

func instructions(name string, res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: installed in %s\n", name, res.StartupFile)
	fmt.Fprintf(&b, "%s: run this once to load now:\n", name)
	b.WriteString(res.SourceLine + "\n")
	return b.String()
}

// shellQuote wraps s in single quotes for zsh
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
