package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/app"
)

const (
	flagChainID   = "chain-id"
	flagOverwrite = "overwrite"
	flagAuthority = "authority"
)

// InitCmd writes config.toml and a default genesis.json under --home.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize node configuration and genesis files",
		Long: `Initialize the node's configuration and genesis files.

Example:
  settlementd init --chain-id settlement-devnet-1 --home ~/.settlementd
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := homeDir(cmd)
			chainID, _ := cmd.Flags().GetString(flagChainID)
			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
			authority, _ := cmd.Flags().GetString(flagAuthority)

			configPath := ConfigPath(home)
			genesisPath := GenesisPath(home)
			if !overwrite {
				for _, path := range []string{configPath, genesisPath} {
					if fileExists(path) {
						return fmt.Errorf("%s already exists; pass --%s to replace it", path, flagOverwrite)
					}
				}
			}

			cfg := DefaultNodeConfig()
			if authority != "" {
				cfg.Authority = authority
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := WriteNodeConfig(configPath, cfg); err != nil {
				return err
			}

			doc := app.NewGenesisDoc(chainID, time.Now())
			if err := doc.Validate(); err != nil {
				return err
			}
			if err := doc.SaveAs(genesisPath); err != nil {
				return err
			}
			if err := os.MkdirAll(DataDir(home), 0o750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized node in %s\n", home)
			fmt.Fprintf(cmd.OutOrStdout(), "Chain ID: %s\n", doc.ChainID)
			fmt.Fprintf(cmd.OutOrStdout(), "Authority: %s\n", cfg.Authority)
			return nil
		},
	}

	cmd.Flags().String(flagChainID, app.DefaultChainID, "genesis chain id")
	cmd.Flags().Bool(flagOverwrite, false, "overwrite existing config and genesis files")
	cmd.Flags().String(flagAuthority, "", "authority account (defaults to the gov module address)")
	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
