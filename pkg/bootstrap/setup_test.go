package bootstrap_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/arc-language/brewlet/pkg/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptPath = "/opt/homebrew/opt/qcd/share/qcd/qcd.zsh"

func TestSetupPlain(t *testing.T) {
	home := t.TempDir()
	opts := bootstrap.Options{Name: "qcd", ScriptPath: scriptPath, Home: home}

	var out bytes.Buffer
	res, err := bootstrap.Setup(opts, &out)
	require.NoError(t, err)

	assert.True(t, res.FirstInstall)
	assert.False(t, res.Loaded)
	assert.Equal(t, home+"/.zshrc", res.StartupFile)
	assert.Equal(t, "qcd: installed in "+res.StartupFile+"\n"+
		"qcd: run this once to load now:\n"+
		`source "`+scriptPath+`"`+"\n", out.String())
	assert.NotContains(t, out.String(), "qcd help", "plain mode never touches the caller's shell")
}

func TestSetupSourced(t *testing.T) {
	zdotdir := t.TempDir()
	opts := bootstrap.Options{Name: "qcd", ScriptPath: scriptPath, ZDotDir: zdotdir, Home: "/unused", Sourced: true}

	var out bytes.Buffer
	res, err := bootstrap.Setup(opts, &out)
	require.NoError(t, err)
	assert.True(t, res.FirstInstall)
	assert.True(t, res.Loaded)
	assert.Equal(t, zdotdir+"/.zshrc", res.StartupFile)
	assert.Equal(t, `source "`+scriptPath+`"`+"\n"+
		"print -- 'qcd: installed and loaded in this shell'\n"+
		"print -- ''\n"+
		"qcd help\n", out.String())

	out.Reset()
	res, err = bootstrap.Setup(opts, &out)
	require.NoError(t, err)
	assert.False(t, res.FirstInstall)
	assert.NotContains(t, out.String(), "qcd help", "help only on first install")

	data, err := os.ReadFile(res.StartupFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), res.SourceLine))
}

func TestSetupRejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	_, err := bootstrap.Setup(bootstrap.Options{Name: "qcd", ScriptPath: `/tmp/$HOME/qcd.zsh`, Home: t.TempDir()}, &out)
	assert.ErrorIs(t, err, bootstrap.ErrUnquotablePath)

	_, err = bootstrap.Setup(bootstrap.Options{Name: "qcd", ScriptPath: scriptPath}, &out)
	assert.Error(t, err)

	_, err = bootstrap.Setup(bootstrap.Options{ScriptPath: scriptPath, Home: t.TempDir()}, &out)
	assert.Error(t, err)
}
