// internal/cli/info.go
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [formula]",
	Short: "Show information about a formula",
	Long:  `Display the formula's metadata, where it installs and whether it is installed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

var caveatsCmd = &cobra.Command{
	Use:   "caveats [formula]",
	Short: "Show the post-install notes for a formula",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := managerFor(args)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ensureNewline(m.Caveats()))
		return nil
	},
}

func runInfo(cmd *cobra.Command, args []string) error {
	m, err := managerFor(args)
	if err != nil {
		return err
	}
	info := m.Info()
	f := info.Formula

	out := cmd.OutOrStdout()
	title, label := styles(out)

	fmt.Fprintln(out, title.Render(fmt.Sprintf("%s: %s", f.Name, f.Version)))
	fmt.Fprintln(out, f.Description)
	fmt.Fprintln(out, f.Homepage)

	row := func(k, v string) {
		fmt.Fprintf(out, "%s %s\n", label.Render(k+":"), v)
	}
	row("License", f.License)
	row("From", f.URL)
	row("SHA256", f.SHA256)
	row("Keg", info.Layout.Keg())
	if info.Installed {
		row("Status", "installed")
	} else {
		row("Status", "not installed")
	}
	row("Setup", info.Setup)
	return nil
}

// styles returns plain styles unless out is a terminal
func styles(out io.Writer) (title, label lipgloss.Style) {
	title, label = lipgloss.NewStyle(), lipgloss.NewStyle()
	if f, ok := out.(*os.File); ok && logging.IsTerminal(f) {
		title = title.Bold(true).Foreground(lipgloss.Color("12"))
		label = label.Foreground(lipgloss.Color("8"))
	}
	return title, label
}
