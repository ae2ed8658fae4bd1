package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// StartCmd runs the node until interrupted.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the settlement node",
		Long: `Run the settlement node. On first start the chain is initialized from
config/genesis.json; later starts resume from the committed state in data/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := homeDir(cmd)
			cfg, err := LoadNodeConfig(home)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			node, err := NewNode(ctx, home, cfg, logger)
			if err != nil {
				return err
			}
			defer node.Close()

			err = node.Run(ctx)
			logger.Info("node stopped", "height", node.App.LastHeight())
			return err
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
