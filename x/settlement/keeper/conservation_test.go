package keeper_test

import (
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/paw-chain/settlement/x/settlement/keeper"
)

// TestConservationProperty drives random session lifecycles and checks that no
// funds are created or lost and the module account always covers what it owes.
func TestConservationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := setupWithHost(t)
		holders := []sdk.AccAddress{env.host, env.depositor, env.stranger, env.Keeper.ModuleAddress()}
		totalOf := func(denom string) math.Int {
			sum := math.ZeroInt()
			for _, addr := range holders {
				sum = sum.Add(env.Balance(addr, denom))
			}
			return sum
		}
		stableSupply := totalOf(stableDenom)
		nativeSupply := totalOf(nativeDenom)

		var active []uint64
		proofs := 0
		steps := rapid.IntRange(1, 25).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			action := rapid.IntRange(0, 5).Draw(rt, "action")
			if len(active) == 0 {
				action = 0
			}

			switch action {
			case 0:
				terms := env.terms()
				terms.Deposit = math.NewInt(rapid.Int64Range(500_000, 3_000_000).Draw(rt, "deposit"))
				terms.PricePerUnit = math.NewInt(rapid.Int64Range(2000, 5000).Draw(rt, "price"))
				id, err := env.Keeper.CreateSession(env.Ctx, env.depositor, terms)
				require.NoError(rt, err)
				active = append(active, id)

			case 1, 2:
				idx := rapid.IntRange(0, len(active)-1).Draw(rt, "proveIdx")
				units := rapid.Uint64Range(100, 2000).Draw(rt, "units")
				proofs++
				_, err := env.Keeper.SubmitProof(env.Ctx, env.host, active[idx], units, digest(fmt.Sprintf("prop-%d", proofs)), "", "")
				require.NoError(rt, err)

			case 3:
				idx := rapid.IntRange(0, len(active)-1).Draw(rt, "completeIdx")
				caller := env.depositor
				if rapid.Bool().Draw(rt, "byHost") {
					caller = env.host
					env.Advance(31 * time.Second)
				}
				_, err := env.Keeper.CompleteSession(env.Ctx, caller, active[idx], "")
				require.NoError(rt, err)
				active = append(active[:idx], active[idx+1:]...)

			case 4:
				env.Advance(time.Duration(rapid.IntRange(1, 400).Draw(rt, "idle")) * time.Second)
				idx := rapid.IntRange(0, len(active)-1).Draw(rt, "timeoutIdx")
				s, err := env.Keeper.GetSession(env.Ctx, active[idx])
				require.NoError(rt, err)
				params, err := env.Keeper.GetParams(env.Ctx)
				require.NoError(rt, err)
				_, err = env.Keeper.TriggerTimeout(env.Ctx, env.stranger, active[idx])
				if keeper.TimeoutReached(params, s, env.Ctx.BlockTime()) {
					require.NoError(rt, err)
					active = append(active[:idx], active[idx+1:]...)
				} else {
					require.Error(rt, err)
				}

			case 5:
				_, err := env.Keeper.WithdrawAllEarnings(env.Ctx, env.host)
				if err != nil {
					require.Empty(rt, mustEarnings(rt, env))
				}
			}

			require.True(rt, stableSupply.Equal(totalOf(stableDenom)), "stable supply changed at step %d", i)
			require.True(rt, nativeSupply.Equal(totalOf(nativeDenom)), "native supply changed at step %d", i)
			msg, broken := keeper.AllInvariants(*env.Keeper)(env.Ctx)
			require.False(rt, broken, msg)
		}
	})
}

func mustEarnings(rt *rapid.T, env *testEnv) sdk.Coins {
	coins, err := env.Keeper.GetAllEarnings(env.Ctx, env.host)
	require.NoError(rt, err)
	return coins
}
