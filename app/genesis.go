package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

// BalancesModuleName keys the initial balances in the app state.
const BalancesModuleName = "balances"

// GenesisState represents the genesis state of the application.
// It is a map from module name to module genesis state.
type GenesisState map[string]json.RawMessage

// Balance is an initial allocation minted at genesis.
type Balance struct {
	Address string    `json:"address"`
	Coins   sdk.Coins `json:"coins"`
}

// BalancesGenesis lists the initial allocations.
type BalancesGenesis struct {
	Balances []Balance `json:"balances"`
}

// Validate checks addresses and amounts.
func (g BalancesGenesis) Validate() error {
	seen := make(map[string]bool, len(g.Balances))
	for i, b := range g.Balances {
		if _, err := sdk.AccAddressFromBech32(b.Address); err != nil {
			return ErrGenesis.Wrapf("balance %d: invalid address: %v", i, err)
		}
		if seen[b.Address] {
			return ErrGenesis.Wrapf("balance %d: duplicate address %s", i, b.Address)
		}
		seen[b.Address] = true
		if err := b.Coins.Validate(); err != nil {
			return ErrGenesis.Wrapf("balance %d: %v", i, err)
		}
	}
	return nil
}

// GenesisDoc is the file a node boots from.
type GenesisDoc struct {
	ChainID     string       `json:"chain_id"`
	GenesisTime time.Time    `json:"genesis_time"`
	AppState    GenesisState `json:"app_state"`
}

// NewDefaultGenesisState generates the default state for the application.
func NewDefaultGenesisState() GenesisState {
	genesis := make(GenesisState)
	genesis[BalancesModuleName] = mustMarshalJSON(BalancesGenesis{Balances: []Balance{}})
	genesis[whitelisttypes.ModuleName] = mustMarshalJSON(whitelisttypes.DefaultGenesis())
	genesis[settlementtypes.ModuleName] = mustMarshalJSON(settlementtypes.DefaultGenesis())
	return genesis
}

// NewGenesisDoc returns a default genesis document for chainID.
func NewGenesisDoc(chainID string, genesisTime time.Time) GenesisDoc {
	if chainID == "" {
		chainID = DefaultChainID
	}
	return GenesisDoc{
		ChainID:     chainID,
		GenesisTime: genesisTime.UTC(),
		AppState:    NewDefaultGenesisState(),
	}
}

// Validate checks every module section.
func (doc GenesisDoc) Validate() error {
	if doc.ChainID == "" {
		return ErrGenesis.Wrap("chain id cannot be empty")
	}
	if doc.GenesisTime.IsZero() {
		return ErrGenesis.Wrap("genesis time cannot be zero")
	}

	var balances BalancesGenesis
	if err := doc.section(BalancesModuleName, &balances); err != nil {
		return err
	}
	if err := balances.Validate(); err != nil {
		return err
	}

	var whitelist whitelisttypes.GenesisState
	if err := doc.section(whitelisttypes.ModuleName, &whitelist); err != nil {
		return err
	}
	if err := whitelist.Validate(); err != nil {
		return ErrGenesis.Wrapf("%s: %v", whitelisttypes.ModuleName, err)
	}

	var settlement settlementtypes.GenesisState
	if err := doc.section(settlementtypes.ModuleName, &settlement); err != nil {
		return err
	}
	if err := settlement.Validate(); err != nil {
		return ErrGenesis.Wrapf("%s: %v", settlementtypes.ModuleName, err)
	}
	return nil
}

// section decodes one module's state; a missing section leaves out untouched.
func (doc GenesisDoc) section(module string, out any) error {
	bz, ok := doc.AppState[module]
	if !ok || len(bz) == 0 {
		return nil
	}
	if err := json.Unmarshal(bz, out); err != nil {
		return ErrGenesis.Wrapf("%s: %v", module, err)
	}
	return nil
}

// LoadGenesisDoc reads a genesis document from path.
func LoadGenesisDoc(path string) (GenesisDoc, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return GenesisDoc{}, fmt.Errorf("failed to read genesis file: %w", err)
	}
	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return GenesisDoc{}, fmt.Errorf("failed to parse genesis file: %w", err)
	}
	return doc, nil
}

// SaveAs writes the document to path.
func (doc GenesisDoc) SaveAs(path string) error {
	bz, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal genesis: %w", err)
	}
	return os.WriteFile(path, bz, 0o600)
}

// mustMarshalJSON marshals v to JSON, panicking on error
func mustMarshalJSON(v interface{}) json.RawMessage {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bz
}
