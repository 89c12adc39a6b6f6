package brewlet_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arc-language/brewlet"
	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// served returns a qcd formula pointing at a local server holding a
// tag tarball with the given script body
func served(t *testing.T, script string) (*formula.Formula, *testutil.Server) {
	t.Helper()
	archive := testutil.TarGz(t,
		testutil.File{Name: "qcd-0.1.0/qcd.zsh", Body: script},
		testutil.File{Name: "qcd-0.1.0/README.md", Body: "# qcd\n"},
	)
	srv := testutil.Serve(t, archive)

	f := formula.Qcd()
	f.URL = srv.URL + "/archive/refs/tags/v0.1.0.tar.gz"
	f.SHA256 = testutil.SHA256(archive)
	return f, srv
}

func newManager(t *testing.T, f *formula.Formula) *brewlet.Manager {
	t.Helper()
	shell := "sh"
	if _, err := exec.LookPath(shell); err != nil {
		shell = "/bin/sh"
	}
	m, err := brewlet.NewManager(f, &brewlet.Config{
		Prefix:    t.TempDir(),
		CachePath: t.TempDir(),
		Shell:     shell,
		ShellArgs: []string{"-c"},
	})
	require.NoError(t, err)
	return m
}

func TestNewManagerRejectsInvalidFormula(t *testing.T) {
	f := formula.Qcd()
	f.SHA256 = "nope"
	_, err := brewlet.NewManager(f, &brewlet.Config{Prefix: t.TempDir()})
	assert.ErrorIs(t, err, brewlet.ErrInvalidFormula)

	var bErr *brewlet.Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "load", bErr.Op)

	_, err = brewlet.NewManager(nil, nil)
	assert.ErrorIs(t, err, brewlet.ErrInvalidFormula)

	_, err = brewlet.NewManager(formula.Qcd(), &brewlet.Config{})
	assert.Error(t, err, "prefix is required")
}

func TestInstall(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	m := newManager(t, f)

	receipt, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.NoError(t, err)
	assert.True(t, m.Installed())

	body, err := os.ReadFile(receipt.Script)
	require.NoError(t, err)
	assert.Equal(t, testutil.QcdStub, string(body))

	info, err := os.Stat(receipt.Bootstrap)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	again, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.NoError(t, err)
	assert.Equal(t, receipt, again)
}

func TestInstallHashMismatchCopiesNothing(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	f.SHA256 = testutil.SHA256([]byte("a different archive"))
	m := newManager(t, f)

	_, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.ErrorIs(t, err, brewlet.ErrHashMismatch)

	var bErr *brewlet.Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "fetch", bErr.Op)
	assert.Equal(t, "qcd", bErr.Formula)

	assert.False(t, m.Installed())
	_, statErr := os.Stat(m.Layout().Keg())
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstallMissingScript(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	f.Script = "other.zsh"
	m := newManager(t, f)

	_, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	assert.ErrorIs(t, err, brewlet.ErrScriptNotFound)
}

func TestInstallRunsSmokeTest(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	m := newManager(t, f)

	_, err := m.Install(context.Background(), nil)
	require.NoError(t, err)

	res, err := m.Test(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.Expected, res.Actual)
}

func TestInstallKeepsFilesWhenSmokeTestFails(t *testing.T) {
	f, _ := served(t, "qcd() { cat >/dev/null; }\n")
	m := newManager(t, f)

	receipt, err := m.Install(context.Background(), nil)
	require.ErrorIs(t, err, brewlet.ErrTestFailed)
	require.NotNil(t, receipt)
	assert.True(t, m.Installed(), "a failed test does not undo the install")
}

func TestTestReportsFailingTool(t *testing.T) {
	f, _ := served(t, "qcd() { return 3; }\n")
	m := newManager(t, f)

	_, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.NoError(t, err)

	_, err = m.Test(context.Background())
	require.ErrorIs(t, err, brewlet.ErrTestFailed)

	var bErr *brewlet.Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "test", bErr.Op)
}

func TestTestRequiresInstall(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	_, err := newManager(t, f).Test(context.Background())
	assert.ErrorIs(t, err, brewlet.ErrNotInstalled)
}

func TestSetup(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	m := newManager(t, f)

	var out bytes.Buffer
	_, err := m.Setup(brewlet.SetupOptions{Home: t.TempDir()}, &out)
	require.ErrorIs(t, err, brewlet.ErrNotInstalled)

	_, err = m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.NoError(t, err)

	home := t.TempDir()
	for i := 0; i < 2; i++ {
		out.Reset()
		res, err := m.Setup(brewlet.SetupOptions{Home: home, Sourced: true}, &out)
		require.NoError(t, err)
		assert.Equal(t, i == 0, res.FirstInstall)
		assert.Equal(t, i == 0, strings.Contains(out.String(), "qcd help"))
	}

	data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	require.NoError(t, err)
	line := `source "` + filepath.Join(m.Layout().OptPkgShare(), "qcd.zsh") + `"`
	assert.Equal(t, 1, strings.Count(string(data), line))
}

func TestCaveats(t *testing.T) {
	m := newManager(t, formula.Qcd())
	share := m.Layout().OptPkgShare()

	caveats := m.Caveats()
	assert.Contains(t, caveats, "qcd must be sourced")
	assert.Contains(t, caveats, `source "`+filepath.Join(share, "install.zsh")+`"`)

	manual := formula.Qcd()
	manual.Bootstrap = false
	caveats = newManager(t, manual).Caveats()
	assert.Contains(t, caveats, "Add this line to ~/.zshrc")
	assert.NotContains(t, caveats, "install.zsh")

	custom := formula.Qcd()
	custom.Caveats = "read the docs\n"
	assert.Equal(t, "read the docs\n", newManager(t, custom).Caveats())
}

func TestInfo(t *testing.T) {
	f, _ := served(t, testutil.QcdStub)
	m := newManager(t, f)

	info := m.Info()
	assert.False(t, info.Installed)
	assert.Equal(t, "install.zsh", info.Setup)
	assert.Equal(t, "0.1.0", info.Layout.Version)

	_, err := m.Install(context.Background(), &brewlet.InstallOptions{SkipTest: true})
	require.NoError(t, err)
	assert.True(t, m.Info().Installed)

	f.Bootstrap = false
	assert.Equal(t, "manual", m.Info().Setup)
}
