package cmd

import (
	"fmt"
	"os"
	"sync"

	"cosmossdk.io/log"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/settlement/app"
)

const flagHome = "home"

var sdkConfigOnce sync.Once

// initSDKConfig installs the address prefixes once per process.
func initSDKConfig() {
	sdkConfigOnce.Do(func() {
		app.SetConfig()
	})
}

// NewRootCmd creates the settlementd root command.
func NewRootCmd() *cobra.Command {
	initSDKConfig()

	rootCmd := &cobra.Command{
		Use:   "settlementd",
		Short: "Session settlement node",
		Long: `settlementd runs the session settlement engine: hosts publish minimum prices,
clients escrow deposits into metered sessions, hosts checkpoint proven work and
each session settles into host earnings, a protocol fee and a refund.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().String(flagHome, app.DefaultNodeHome, "directory for config and data")

	rootCmd.AddCommand(
		InitCmd(),
		GenesisCmd(),
		StartCmd(),
		TokenCmd(),
		ParamsCmd(),
		ExportCmd(),
		VersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// homeDir resolves --home, falling back to SETTLEMENT_HOME.
func homeDir(cmd *cobra.Command) string {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	_ = v.BindEnv(flagHome)
	_ = v.BindPFlag(flagHome, cmd.Flags().Lookup(flagHome))
	if home := cast.ToString(v.Get(flagHome)); home != "" {
		return home
	}
	return app.DefaultNodeHome
}

// newLogger builds the node logger from the configured level and format.
func newLogger(cfg NodeConfig) (log.Logger, error) {
	filter, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	opts := []log.Option{log.FilterOption(filter)}
	if cfg.LogFormat == "json" {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(os.Stdout, opts...), nil
}
