// Command mgindex builds a multigrid hierarchy, numbers its fields on every
// level and assembles the prolongation chains.
//
// Usage:
//
//	mgindex run --config mg.yaml
//	mgindex rules
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notargets/MGIndex/config"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		verbose bool
		logger  *zap.Logger
		cfg     *config.Config
	)
	root := &cobra.Command{
		Use:          "mgindex",
		Short:        "Multigrid DOF numbering and prolongation on adaptive tetrahedral meshes",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	run := &cobra.Command{
		Use:   "run",
		Short: "Build the hierarchy, number the fields and assemble the prolongations",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(cfgPath); err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			logger, err = cfg.Logging.NewLogger()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = logger.Sync() }()
			s, err := runPipeline(cfg, logger)
			if err != nil {
				return err
			}
			return s.write(cmd.OutOrStdout())
		},
	}

	rules := &cobra.Command{
		Use:   "rules",
		Short: "Print the refinement rule catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeRules(cmd.OutOrStdout())
		},
	}

	root.AddCommand(run, rules)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
