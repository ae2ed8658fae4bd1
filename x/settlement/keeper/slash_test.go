package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestSlashHost(t *testing.T) {
	env := setupWithHost(t)

	record, err := env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(300_000), "bafy-evidence", "served wrong model")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(700_000), record.StakeAfter)
	require.False(t, record.AutoUnregistered)

	h, err := env.Keeper.GetHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(700_000), h.Stake)
	require.Equal(t, math.NewInt(300_000), h.TotalSlashed)
	require.Equal(t, env.Ctx.BlockTime(), h.LastSlashAt)

	treasury, err := env.Keeper.GetTreasury(env.Ctx, nativeDenom)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(300_000), treasury)

	records, err := env.Keeper.GetSlashRecords(env.Ctx, env.host)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "served wrong model", records[0].Reason)
	env.requireSolvent(t)
}

func TestSlashHost_Bounds(t *testing.T) {
	env := setupWithHost(t)

	_, err := env.Keeper.SlashHost(env.Ctx, env.stranger.String(), env.host, math.NewInt(1), "ev", "reason")
	require.ErrorIs(t, err, types.ErrNotSlashingAuthority)

	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(500_001), "ev", "reason")
	require.ErrorIs(t, err, types.ErrSlashExceedsCap)

	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(1_000), "", "reason")
	require.ErrorIs(t, err, types.ErrInvalidEvidence)

	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.ZeroInt(), "ev", "reason")
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.stranger, math.NewInt(1), "ev", "reason")
	require.ErrorIs(t, err, types.ErrHostNotFound)

	h, err := env.Keeper.GetHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_000_000), h.Stake)
}

func TestSlashHost_Cooldown(t *testing.T) {
	env := setupWithHost(t)

	_, err := env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(100_000), "ev-1", "first")
	require.NoError(t, err)

	env.Advance(23 * time.Hour)
	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(100_000), "ev-2", "second")
	require.ErrorIs(t, err, types.ErrSlashCooldown)

	env.Advance(time.Hour)
	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(100_000), "ev-2", "second")
	require.NoError(t, err)

	records, err := env.Keeper.GetSlashRecords(env.Ctx, env.host)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestSlashHost_AutoUnregister(t *testing.T) {
	env := setupWithHost(t)
	before := env.Balance(env.host, nativeDenom)

	record, err := env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(400_001), "ev", "offline")
	require.NoError(t, err)
	require.True(t, record.AutoUnregistered)

	_, err = env.Keeper.GetHost(env.Ctx, env.host)
	require.ErrorIs(t, err, types.ErrHostNotFound)
	require.True(t, env.Balance(env.host, nativeDenom).Equal(before.AddRaw(599_999)))

	// history outlives the registration
	records, err := env.Keeper.GetSlashRecords(env.Ctx, env.host)
	require.NoError(t, err)
	require.Len(t, records, 1)
	env.requireSolvent(t)
}

func TestSlashHost_CustomAuthority(t *testing.T) {
	env := setupWithHost(t)
	params, err := env.Keeper.GetParams(env.Ctx)
	require.NoError(t, err)
	params.SlashingAuthority = env.stranger.String()
	require.NoError(t, env.Keeper.UpdateParams(env.Ctx, env.Authority, params))

	_, err = env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(1_000), "ev", "reason")
	require.ErrorIs(t, err, types.ErrNotSlashingAuthority)
	_, err = env.Keeper.SlashHost(env.Ctx, env.stranger.String(), env.host, math.NewInt(1_000), "ev", "reason")
	require.NoError(t, err)
}

func TestSlashedHostKeepsSessionEarnings(t *testing.T) {
	env := setupWithHost(t)
	id := env.openSession(t)
	env.prove(t, id, 100_000, "before-slash")

	_, err := env.Keeper.SlashHost(env.Ctx, env.Authority, env.host, math.NewInt(450_000), "ev", "offline")
	require.NoError(t, err)

	_, err = env.Keeper.SubmitProof(env.Ctx, env.host, id, 1_000, digest("after-slash"), "", "")
	require.NoError(t, err)

	_, err = env.Keeper.CompleteSession(env.Ctx, env.depositor, id, "")
	require.NoError(t, err)
	earned, err := env.Keeper.GetEarnings(env.Ctx, env.host, stableDenom)
	require.NoError(t, err)
	require.True(t, earned.IsPositive())
	env.requireSolvent(t)
}
