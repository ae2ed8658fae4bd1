package cmd

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"

	"github.com/paw-chain/settlement/app"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

const (
	flagModelName  = "name"
	flagContentRef = "content-ref"
)

// GenesisCmd groups the commands that edit genesis.json before the first start.
func GenesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Edit the genesis file",
	}
	cmd.AddCommand(
		AddGenesisAccountCmd(),
		AddGenesisModelCmd(),
		ValidateGenesisCmd(),
	)
	return cmd
}

// AddGenesisAccountCmd adds coins to an account's initial balance.
func AddGenesisAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add-account [address] [coins]",
		Short:   "Add an initial balance to genesis.json",
		Example: `  settlementd genesis add-account paw1... 100000000upaw,100000000uusdc`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := sdk.AccAddressFromBech32(args[0])
			if err != nil {
				return fmt.Errorf("invalid address: %w", err)
			}
			coins, err := sdk.ParseCoinsNormalized(args[1])
			if err != nil {
				return fmt.Errorf("invalid coins: %w", err)
			}

			return editGenesis(cmd, func(doc *app.GenesisDoc) error {
				var balances app.BalancesGenesis
				if err := decodeSection(doc, app.BalancesModuleName, &balances); err != nil {
					return err
				}
				found := false
				for i, b := range balances.Balances {
					if b.Address == addr.String() {
						balances.Balances[i].Coins = b.Coins.Add(coins...)
						found = true
						break
					}
				}
				if !found {
					balances.Balances = append(balances.Balances, app.Balance{Address: addr.String(), Coins: coins})
				}
				return encodeSection(doc, app.BalancesModuleName, balances)
			})
		},
	}
}

// AddGenesisModelCmd approves a model id at genesis.
func AddGenesisModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-model [model-id]",
		Short: "Approve a model in genesis.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID := args[0]
			if err := whitelisttypes.ValidateModelID(modelID); err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString(flagModelName)
			contentRef, _ := cmd.Flags().GetString(flagContentRef)

			cfg, err := LoadNodeConfig(homeDir(cmd))
			if err != nil {
				return err
			}

			return editGenesis(cmd, func(doc *app.GenesisDoc) error {
				var whitelist whitelisttypes.GenesisState
				if err := decodeSection(doc, whitelisttypes.ModuleName, &whitelist); err != nil {
					return err
				}
				for _, m := range whitelist.Models {
					if m.ID == modelID {
						return whitelisttypes.ErrModelExists.Wrapf("model %s", modelID)
					}
				}
				whitelist.Models = append(whitelist.Models, whitelisttypes.ApprovedModel{
					ID:         modelID,
					Name:       name,
					ContentRef: contentRef,
					ApprovedBy: cfg.Authority,
					ApprovedAt: doc.GenesisTime,
				})
				return encodeSection(doc, whitelisttypes.ModuleName, whitelist)
			})
		},
	}
	cmd.Flags().String(flagModelName, "", "human readable model name")
	cmd.Flags().String(flagContentRef, "", "content reference of the model weights")
	return cmd
}

// ValidateGenesisCmd checks genesis.json without starting the node.
func ValidateGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate genesis.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := GenesisPath(homeDir(cmd))
			doc, err := app.LoadGenesisDoc(path)
			if err != nil {
				return err
			}
			if err := doc.Validate(); err != nil {
				return fmt.Errorf("genesis file %s is invalid: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "File at %s is a valid genesis file\n", path)
			return nil
		},
	}
}

func editGenesis(cmd *cobra.Command, edit func(doc *app.GenesisDoc) error) error {
	path := GenesisPath(homeDir(cmd))
	doc, err := app.LoadGenesisDoc(path)
	if err != nil {
		return err
	}
	if err := edit(&doc); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	return doc.SaveAs(path)
}

func decodeSection(doc *app.GenesisDoc, module string, out any) error {
	bz, ok := doc.AppState[module]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(bz, out); err != nil {
		return fmt.Errorf("failed to decode %s genesis: %w", module, err)
	}
	return nil
}

func encodeSection(doc *app.GenesisDoc, module string, v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s genesis: %w", module, err)
	}
	if doc.AppState == nil {
		doc.AppState = app.GenesisState{}
	}
	doc.AppState[module] = bz
	return nil
}
