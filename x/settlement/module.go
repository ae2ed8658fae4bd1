package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// ConsensusVersion is the store schema version this module writes.
const ConsensusVersion = 2

// AppModule binds the settlement keeper to the application lifecycle: genesis,
// invariants and store migrations.
type AppModule struct {
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule object
func NewAppModule(k *keeper.Keeper) AppModule {
	return AppModule{keeper: k}
}

// Name returns the settlement module's name.
func (AppModule) Name() string {
	return types.ModuleName
}

// ConsensusVersion implements AppModule/ConsensusVersion.
func (AppModule) ConsensusVersion() uint64 { return ConsensusVersion }

// DefaultGenesis returns default genesis state as raw bytes for the settlement module.
func (AppModule) DefaultGenesis() json.RawMessage {
	bz, err := json.Marshal(types.DefaultGenesis())
	if err != nil {
		panic(fmt.Errorf("failed to marshal default %s genesis: %w", types.ModuleName, err))
	}
	return bz
}

// ValidateGenesis performs genesis state validation for the settlement module.
func (AppModule) ValidateGenesis(bz json.RawMessage) error {
	var gs types.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	return gs.Validate()
}

// InitGenesis performs genesis initialization for the settlement module.
func (am AppModule) InitGenesis(ctx context.Context, bz json.RawMessage) error {
	var gs types.GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return fmt.Errorf("failed to unmarshal %s genesis state: %w", types.ModuleName, err)
	}
	if err := gs.Validate(); err != nil {
		return err
	}
	return am.keeper.InitGenesis(ctx, gs)
}

// ExportGenesis returns the exported genesis state as raw bytes for the settlement module.
func (am AppModule) ExportGenesis(ctx context.Context) (json.RawMessage, error) {
	gs, err := am.keeper.ExportGenesis(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(gs)
}

// RegisterInvariants registers the settlement module's invariants.
func (am AppModule) RegisterInvariants(ir sdk.InvariantRegistry) {
	keeper.RegisterInvariants(ir, *am.keeper)
}

// RunMigrations brings a store written at version from up to ConsensusVersion.
func (am AppModule) RunMigrations(ctx sdk.Context, from uint64) error {
	m := keeper.NewMigrator(*am.keeper)
	migrations := map[uint64]func(sdk.Context) error{
		1: m.Migrate1to2,
	}
	for v := from; v < ConsensusVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no %s migration from version %d", types.ModuleName, v)
		}
		if err := migrate(ctx); err != nil {
			return fmt.Errorf("%s migration %d->%d failed: %w", types.ModuleName, v, v+1, err)
		}
	}
	return nil
}
