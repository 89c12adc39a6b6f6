// internal/cli/tap.go
package cli

import (
	"fmt"
	"sort"

	"github.com/arc-language/brewlet/pkg/core"
	"github.com/arc-language/brewlet/pkg/tap"
	"github.com/spf13/cobra"
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Manage formula repositories",
}

var tapAddCmd = &cobra.Command{
	Use:   "add <user/repo> <url>",
	Short: "Clone a tap and remember it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]

		t, err := tap.New(config.CachePath, name, url)
		if err != nil {
			return err
		}
		if err := t.Sync(cmd.Context()); err != nil {
			return err
		}

		config.Taps[name] = url
		if err := core.SaveConfig(config, cfgFile); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Tapped %s\n", name)
		return nil
	},
}

var tapUpdateCmd = &cobra.Command{
	Use:   "update [user/repo...]",
	Short: "Pull configured taps",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			names = tapNames()
		}

		for _, name := range names {
			url, ok := config.Taps[name]
			if !ok {
				return fmt.Errorf("tap %s is not configured", name)
			}
			t, err := tap.New(config.CachePath, name, url)
			if err != nil {
				return err
			}
			if err := t.Sync(cmd.Context()); err != nil {
				return fmt.Errorf("updating %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %s\n", name)
		}
		return nil
	},
}

var tapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured taps",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range tapNames() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, config.Taps[name])
		}
	},
}

func init() {
	tapCmd.AddCommand(tapAddCmd)
	tapCmd.AddCommand(tapUpdateCmd)
	tapCmd.AddCommand(tapListCmd)
}

func tapNames() []string {
	names := make([]string, 0, len(config.Taps))
	for name := range config.Taps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
