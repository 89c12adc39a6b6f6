package bootstrap_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arc-language/brewlet/pkg/bootstrap"
	"github.com/arc-language/brewlet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript(t *testing.T) {
	script, err := bootstrap.Script("qcd", scriptPath)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env zsh\n"))
	assert.Contains(t, script, `zshrc="${ZDOTDIR:-$HOME}/.zshrc"`)
	assert.Contains(t, script, `source_line='source "`+scriptPath+`"'`)
	assert.Contains(t, script, `grep -qxF "$source_line" "$zshrc"`)
	assert.Contains(t, script, `*:file*`)
	assert.Contains(t, script, "qcd help")
	assert.Contains(t, script, "_qcd_install_main \"$@\"")

	_, err = bootstrap.Script("qcd", `/tmp/it's/qcd.zsh`)
	assert.ErrorIs(t, err, bootstrap.ErrUnquotablePath)

	_, err = bootstrap.Script("", scriptPath)
	assert.Error(t, err)
}

// TestScriptUnderZsh runs the generated helper in a real zsh, both as a
// plain command and sourced.
func TestScriptUnderZsh(t *testing.T) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		t.Skip("zsh not installed")
	}

	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	require.NoError(t, os.MkdirAll(home, 0755))

	tool := filepath.Join(dir, "qcd.zsh")
	require.NoError(t, os.WriteFile(tool, []byte(testutil.QcdStub), 0644))

	script, err := bootstrap.Script("qcd", tool)
	require.NoError(t, err)
	helper := filepath.Join(dir, "install.zsh")
	require.NoError(t, os.WriteFile(helper, []byte(script), 0755))

	run := func(args ...string) string {
		cmd := exec.Command(zsh, args...)
		cmd.Env = []string{"HOME=" + home, "PATH=" + os.Getenv("PATH")}
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
		return string(out)
	}

	out := run("-f", helper)
	assert.Contains(t, out, "qcd: installed in "+filepath.Join(home, ".zshrc"))
	assert.Contains(t, out, "qcd: run this once to load now:")

	out = run("-f", "-c", `source "`+helper+`"`)
	assert.Contains(t, out, "qcd: installed and loaded in this shell")
	assert.NotContains(t, out, "usage:", "second run is not a first install")

	data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), bootstrap.SourceLine(tool)))
}
