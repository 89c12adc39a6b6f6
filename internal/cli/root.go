// internal/cli/root.go
package cli

import (
	"fmt"

	"github.com/arc-language/brewlet"
	"github.com/arc-language/brewlet/pkg/core"
	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/logging"
	"github.com/arc-language/brewlet/pkg/tap"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	prefix      string
	formulaFile string
	tapName     string
	verbosity   int
	config      *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "brewlet",
	Short: "Install and wire up single-script shell tools",
	Long: `brewlet - formula installer for shell tools

Fetches a formula's source archive, verifies its sha256, installs the
script into a keg under the prefix and checks it with a smoke test.
The built-in formula is qcd, quick directory bookmarks for zsh.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/brewlet/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&prefix, "prefix", "", "install prefix (overrides config and $BREWLET_PREFIX)")
	rootCmd.PersistentFlags().StringVar(&formulaFile, "formula", "", "load the formula from a YAML or TOML manifest")
	rootCmd.PersistentFlags().StringVar(&tapName, "tap", "", "load the formula from this tap (user/repo)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(caveatsCmd)
	rootCmd.AddCommand(tapCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	logging.SetupLogger(verbosity)
	log.Debug().Str("command", cmd.Name()).Msg("Command started")

	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if prefix != "" {
		config.Prefix = prefix
	}
	if config.Debug && verbosity < 2 {
		logging.SetupLogger(2)
	}
	return nil
}

// formulaName picks the formula named on the command line, qcd by default
func formulaName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return formula.QcdName
}

// loadFormula resolves the formula from --formula, --tap, the built-in
// set, and finally every configured tap in name order
func loadFormula(name string) (*formula.Formula, error) {
	if formulaFile != "" {
		return formula.Load(formulaFile)
	}

	if tapName != "" {
		url, ok := config.Taps[tapName]
		if !ok {
			return nil, fmt.Errorf("tap %s is not configured, run: brewlet tap add %s <url>", tapName, tapName)
		}
		t, err := tap.New(config.CachePath, tapName, url)
		if err != nil {
			return nil, err
		}
		return t.Find(name)
	}

	if name == formula.QcdName {
		return formula.Qcd(), nil
	}

	for _, n := range tapNames() {
		t, err := tap.New(config.CachePath, n, config.Taps[n])
		if err != nil {
			continue
		}
		if f, err := t.Find(name); err == nil {
			return f, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", brewlet.ErrFormulaNotFound, name)
}

func newManager(f *formula.Formula) (*brewlet.Manager, error) {
	return brewlet.NewManager(f, &brewlet.Config{
		Prefix:    config.Prefix,
		CachePath: config.CachePath,
		Timeout:   config.Timeout,
		Shell:     config.Shell,
		ShellArgs: config.ShellArgs,
	})
}

// managerFor loads the formula named in args and builds its manager
func managerFor(args []string) (*brewlet.Manager, error) {
	f, err := loadFormula(formulaName(args))
	if err != nil {
		return nil, err
	}
	return newManager(f)
}
