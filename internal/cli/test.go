// internal/cli/test.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test [formula]",
	Short: "Run the smoke test against an installed formula",
	Long: `Source the installed script in a fresh shell, bookmark a scratch
directory, jump to it and check the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := managerFor(args)
		if err != nil {
			return err
		}

		res, err := m.Test(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s test passed (%s)\n", m.Formula().Name, res.Actual)
		return nil
	},
}
