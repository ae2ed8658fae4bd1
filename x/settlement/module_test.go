package settlement_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	testkeeper "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestAppModule_Name(t *testing.T) {
	am := settlement.AppModule{}
	require.Equal(t, types.ModuleName, am.Name())
	require.Equal(t, uint64(2), am.ConsensusVersion())
}

func TestAppModule_DefaultGenesis(t *testing.T) {
	am := settlement.AppModule{}
	bz := am.DefaultGenesis()
	require.NoError(t, am.ValidateGenesis(bz))

	var gs types.GenesisState
	require.NoError(t, json.Unmarshal(bz, &gs))
	require.Equal(t, uint64(1), gs.NextSessionID)
	require.Empty(t, gs.Sessions)
}

func TestAppModule_ValidateGenesis_Invalid(t *testing.T) {
	am := settlement.AppModule{}
	require.Error(t, am.ValidateGenesis(json.RawMessage(`{"next_session_id":`)))

	gs := types.DefaultGenesis()
	gs.NextSessionID = 0
	bz, err := json.Marshal(gs)
	require.NoError(t, err)
	require.Error(t, am.ValidateGenesis(bz))
}

func TestAppModule_GenesisRoundTrip(t *testing.T) {
	f := testkeeper.SettlementKeeper(t)
	am := settlement.NewAppModule(f.Keeper)
	require.NoError(t, am.InitGenesis(f.Ctx, am.DefaultGenesis()))

	exported, err := am.ExportGenesis(f.Ctx)
	require.NoError(t, err)
	require.NoError(t, am.ValidateGenesis(exported))
}

func TestAppModule_RunMigrations(t *testing.T) {
	f := testkeeper.SettlementKeeper(t)
	am := settlement.NewAppModule(f.Keeper)

	require.NoError(t, am.RunMigrations(f.Ctx, f.Keeper.StoredSchemaVersion(f.Ctx)))
	require.Equal(t, uint64(settlement.ConsensusVersion), f.Keeper.StoredSchemaVersion(f.Ctx))

	// already current
	require.NoError(t, am.RunMigrations(f.Ctx, settlement.ConsensusVersion))
	require.Error(t, am.RunMigrations(f.Ctx, 0))
}
