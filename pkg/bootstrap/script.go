// script.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrUnquotablePath is returned for paths that cannot be embedded in the
// generated shell code without escaping
var ErrUnquotablePath = errors.New("path cannot be quoted for zsh")

var installTemplate = template.Must(template.New("install.zsh").Parse(`#!/usr/bin/env zsh
_{{.Func}}_install_main() {
  emulate -L zsh
  setopt errexit nounset pipefail

  local zshrc source_line is_first_install
  zshrc="${ZDOTDIR:-$HOME}/.zshrc"
  touch "$zshrc"

  source_line='{{.SourceLine}}'
  is_first_install=0
  if ! grep -qxF "$source_line" "$zshrc"; then
    printf '\n%s\n' "$source_line" >> "$zshrc"
    is_first_install=1
  fi

  if [[ "${ZSH_EVAL_CONTEXT-}" == *:file* ]]; then
    source "{{.ScriptPath}}"
    print -- "{{.Name}}: installed and loaded in this shell"
    if (( is_first_install )); then
      print -- ""
      {{.Name}} help
    fi
  else
    print -- "{{.Name}}: installed in $zshrc"
    print -- "{{.Name}}: run this once to load now:"
    print -- '{{.SourceLine}}'
  fi
}

_{{.Func}}_install_main "$@"
`))

// SourceLine is the exact line added to the startup file
func SourceLine(scriptPath string) string {
	return `source "` + scriptPath + `"`
}

// CheckPath rejects paths that would need escaping inside the quoted
// forms used by SourceLine and Script
func CheckPath(scriptPath string) error {
	if strings.ContainsAny(scriptPath, "\"'`$\\\n") {
		return fmt.Errorf("%w: %s", ErrUnquotablePath, scriptPath)
	}
	return nil
}

// Script renders install.zsh for the tool called name whose script
// lives at scriptPath (normally under opt/, so it survives upgrades)
func Script(name, scriptPath string) (string, error) {
	if err := CheckPath(scriptPath); err != nil {
		return "", err
	}
	if name == "" || strings.ContainsAny(name, "\"'`$\\ \n") {
		return "", fmt.Errorf("invalid command name %q", name)
	}

	var b strings.Builder
	err := installTemplate.Execute(&b, struct {
		Name       string
		Func       string
		ScriptPath string
		SourceLine string
	}{
		Name:       name,
		Func:       strings.NewReplacer("-", "_", ".", "_").Replace(name),
		ScriptPath: scriptPath,
		SourceLine: SourceLine(scriptPath),
	})
	if err != nil {
		return "", fmt.Errorf("rendering install script: %w", err)
	}
	return b.String(), nil
}
