// internal/cli/setup.go
package cli

import (
	"os"

	"github.com/arc-language/brewlet"
	"github.com/spf13/cobra"
)

var (
	setupEval    bool
	setupZDotDir string
)

var setupCmd = &cobra.Command{
	Use:   "setup [formula]",
	Short: "Add the formula's source line to ~/.zshrc",
	Long: `Append the line that sources the installed script to
${ZDOTDIR:-$HOME}/.zshrc unless it is already there.

With --eval the output is shell code that also loads the tool in the
calling shell (and shows its help the first time):

  eval "$(brewlet setup --eval)"

Without it, brewlet only prints how to load the tool by hand.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupEval, "eval", false, "print shell code for the calling shell to eval")
	setupCmd.Flags().StringVar(&setupZDotDir, "zdotdir", "", "directory holding .zshrc (default $ZDOTDIR, then $HOME)")
}

func runSetup(cmd *cobra.Command, args []string) error {
	m, err := managerFor(args)
	if err != nil {
		return err
	}

	zdotdir := setupZDotDir
	if zdotdir == "" {
		zdotdir = os.Getenv("ZDOTDIR")
	}

	_, err = m.Setup(brewlet.SetupOptions{
		ZDotDir: zdotdir,
		Home:    os.Getenv("HOME"),
		Sourced: setupEval,
	}, cmd.OutOrStdout())
	return err
}
