// Package cli implements the confdispatch command-line interface.
//
// # Commands
//
//   - check: parse configuration files and print the resolved tree
//   - namespaces: list the registered parser namespaces
//   - watch: re-check a configuration whenever it or its includes change
//
// All commands accept --config (a TOML file with properties and options),
// --set key=value property overrides and --verbose for debug logging.
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	confdispatch "github.com/reoring/confdispatch"
	"github.com/reoring/confdispatch/parsers/cacheconf"
)

type app struct {
	logger     *log.Logger
	dispatcher *confdispatch.Dispatcher
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		sets       []string
	)
	a := &app{}

	root := &cobra.Command{
		Use:           "confdispatch",
		Short:         "Resolve and check versioned cache configuration documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			level, err := levelFor(verbose, cfg.Log.Level)
			if err != nil {
				return err
			}
			a.logger = newLogger(cmd.ErrOrStderr(), level)
			opt, err := cfg.options(sets)
			if err != nil {
				return err
			}
			opt.Logger = a.logger
			a.dispatcher, err = confdispatch.New(cacheconf.Parsers(), opt)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML file with properties and options")
	root.PersistentFlags().StringArrayVar(&sets, "set", nil, "set a property (key=value), repeatable")

	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newNamespacesCmd(a))
	root.AddCommand(newWatchCmd(a))
	return root
}
