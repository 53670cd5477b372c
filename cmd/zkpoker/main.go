// Command zkpoker runs the verified poker engine. `serve` exposes it over
// HTTP; the other commands generate keys, check proofs, evaluate hands and
// play a local demonstration hand.
package main

import (
	"os"

	"github.com/luca-patrignani/zkpoker/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

// load reads the configuration named by --config, or the defaults and the
// environment when no file is given.
func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "zkpoker",
		Short:         "Heads-up Texas Hold'em with zero-knowledge verified moves",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")

	root.AddCommand(
		newServeCmd(opts),
		newKeygenCmd(opts),
		newVerifyCmd(),
		newEvalCmd(),
		newDemoCmd(opts),
		newConfigCmd(opts),
	)
	return root
}
