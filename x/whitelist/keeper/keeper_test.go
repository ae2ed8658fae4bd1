package keeper_test

import (
	"testing"
	"time"

	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/whitelist/keeper"
	"github.com/paw-chain/settlement/x/whitelist/types"
)

const authority = "cosmos10d07y265gmmuvt4z0w9aw880jnsr700j6zn9kn"

func setupKeeper(t *testing.T) (*keeper.Keeper, sdk.Context) {
	t.Helper()
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := testutil.DefaultContext(storeKey, storetypes.NewTransientStoreKey("transient_test"))
	ctx = ctx.WithBlockTime(time.Unix(1_700_000_000, 0))
	return keeper.NewKeeper(storeKey, authority), ctx
}

func TestApproveAndRevoke(t *testing.T) {
	k, ctx := setupKeeper(t)

	require.False(t, k.IsApproved(ctx, "llama-3-8b"))
	require.NoError(t, k.ApproveModel(ctx, authority, types.ApprovedModel{ID: "llama-3-8b", Name: "Llama 3 8B"}))
	require.True(t, k.IsApproved(ctx, "llama-3-8b"))

	model, err := k.GetModel(ctx, "llama-3-8b")
	require.NoError(t, err)
	require.Equal(t, authority, model.ApprovedBy)
	require.Equal(t, ctx.BlockTime().UTC(), model.ApprovedAt)

	err = k.ApproveModel(ctx, authority, types.ApprovedModel{ID: "llama-3-8b"})
	require.ErrorIs(t, err, types.ErrModelExists)

	require.NoError(t, k.RevokeModel(ctx, authority, "llama-3-8b"))
	require.False(t, k.IsApproved(ctx, "llama-3-8b"))
	require.ErrorIs(t, k.RevokeModel(ctx, authority, "llama-3-8b"), types.ErrModelNotFound)
}

func TestApproveRequiresAuthority(t *testing.T) {
	k, ctx := setupKeeper(t)

	err := k.ApproveModel(ctx, "cosmos1mallory", types.ApprovedModel{ID: "m"})
	require.ErrorIs(t, err, govtypes.ErrInvalidSigner)
	require.False(t, k.IsApproved(ctx, "m"))

	require.ErrorIs(t, k.ApproveModel(ctx, authority, types.ApprovedModel{ID: " m"}), types.ErrInvalidModelID)
}

func TestGenesisRoundTrip(t *testing.T) {
	k, ctx := setupKeeper(t)

	gs := types.GenesisState{Models: []types.ApprovedModel{
		{ID: "b-model", ApprovedBy: authority, ApprovedAt: time.Unix(5, 0).UTC()},
		{ID: "a-model", ApprovedBy: authority, ApprovedAt: time.Unix(6, 0).UTC()},
	}}
	require.NoError(t, k.InitGenesis(ctx, gs))

	exported, err := k.ExportGenesis(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a-model", "b-model"}, []string{exported.Models[0].ID, exported.Models[1].ID})

	dup := types.GenesisState{Models: []types.ApprovedModel{{ID: "x"}, {ID: "x"}}}
	require.ErrorIs(t, dup.Validate(), types.ErrInvalidGenesis)
}
