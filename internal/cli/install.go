// internal/cli/install.go
package cli

import (
	"fmt"
	"strings"

	"github.com/arc-language/brewlet"
	"github.com/spf13/cobra"
)

var (
	installNoBootstrap bool
	installSkipTest    bool
)

var installCmd = &cobra.Command{
	Use:   "install [formula]",
	Short: "Fetch, verify and install a formula",
	Long: `Download the formula's source archive, verify its sha256, install the
script into the keg and run the smoke test.

Examples:
  brewlet install
  brewlet install --no-bootstrap
  brewlet install mytool --tap me/tools
  brewlet install --formula ./qcd.yaml --skip-test`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installNoBootstrap, "no-bootstrap", false, "do not write install.zsh; edit ~/.zshrc by hand")
	installCmd.Flags().BoolVar(&installSkipTest, "skip-test", false, "do not run the smoke test after installing")
}

func runInstall(cmd *cobra.Command, args []string) error {
	f, err := loadFormula(formulaName(args))
	if err != nil {
		return err
	}
	if installNoBootstrap {
		f.Bootstrap = false
	}

	m, err := newManager(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "==> Installing %s %s\n", f.Name, f.Version)

	receipt, err := m.Install(cmd.Context(), &brewlet.InstallOptions{SkipTest: installSkipTest})
	if receipt != nil {
		fmt.Fprintf(out, "✓ Installed %s\n", receipt.Script)
		if receipt.Bootstrap != "" {
			fmt.Fprintf(out, "✓ Wrote %s\n", receipt.Bootstrap)
		}
	}
	if err != nil {
		return err
	}
	if !installSkipTest {
		fmt.Fprintf(out, "✓ Smoke test passed\n")
	}

	fmt.Fprintf(out, "==> Caveats\n%s", ensureNewline(m.Caveats()))
	return nil
}

func ensureNewline(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimRight(s, "\n") + "\n"
}
