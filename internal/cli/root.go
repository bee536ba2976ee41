// Package cli implements the themesearcher command line: the HTTP server
// and offline tools over the same catalog pipeline.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/olegborzov/themesearcher/pkg/config"
	"github.com/olegborzov/themesearcher/pkg/logger"
)

type app struct {
	configPath string
	cfg        *config.Config
}

// NewRootCmd builds the command tree. Logs go to stderr so command output
// on stdout stays machine-readable.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "themesearcher",
		Short:         "Resolve free-text queries to catalog themes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		a.serveCmd(),
		a.resolveCmd(),
		a.checkCmd(),
		a.importCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
