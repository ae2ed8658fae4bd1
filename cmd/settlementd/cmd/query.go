package cmd

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const flagOutput = "output"

// openOffline opens committed state for a read-only command. The node must be
// stopped: goleveldb allows a single process per data directory.
func openOffline(cmd *cobra.Command) (*app.SettlementApp, error) {
	home := homeDir(cmd)
	cfg, err := LoadNodeConfig(home)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Backend == "memdb" {
		return nil, fmt.Errorf("%s needs a persistent db backend", cmd.Name())
	}
	appCfg, err := cfg.AppConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDB(home, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	settlementApp, err := app.NewSettlementApp(log.NewNopLogger(), db, appCfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !settlementApp.Initialized() {
		_ = settlementApp.Close()
		return nil, app.ErrNotInitiated
	}
	return settlementApp, nil
}

// ParamsCmd prints the committed settlement parameters.
func ParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the committed settlement parameters (node must be stopped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settlementApp, err := openOffline(cmd)
			if err != nil {
				return err
			}
			defer settlementApp.Close()

			var params types.Params
			err = settlementApp.Query(cmdContext(cmd), func(ctx sdk.Context) error {
				params, err = settlementApp.SettlementKeeper.GetParams(ctx)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, params)
		},
	}
}

// ExportCmd writes the committed state as a genesis document.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export committed state as genesis JSON (node must be stopped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settlementApp, err := openOffline(cmd)
			if err != nil {
				return err
			}
			defer settlementApp.Close()

			doc, err := settlementApp.ExportGenesis(cmdContext(cmd))
			if err != nil {
				return err
			}
			if out, _ := cmd.Flags().GetString(flagOutput); out != "" {
				if err := doc.SaveAs(out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported height %d to %s\n", settlementApp.LastHeight(), out)
				return nil
			}
			return printJSON(cmd, doc)
		},
	}
	cmd.Flags().String(flagOutput, "", "write to this file instead of stdout")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return err
}
