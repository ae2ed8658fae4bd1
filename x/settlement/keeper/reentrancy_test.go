package keeper_test

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// hookedBank calls onPayout before every module-to-account transfer, standing in
// for a recipient that runs code when it is paid.
type hookedBank struct {
	types.BankKeeper
	onPayout func(ctx context.Context) error
}

func (b *hookedBank) SendCoinsFromModuleToAccount(ctx context.Context, module string, to sdk.AccAddress, amt sdk.Coins) error {
	if b.onPayout != nil {
		if err := b.onPayout(ctx); err != nil {
			return err
		}
	}
	return b.BankKeeper.SendCoinsFromModuleToAccount(ctx, module, to, amt)
}

func TestReentrantPayoutRejected(t *testing.T) {
	env := setupWithHost(t)
	settleOne(t, env, stableDenom, 100_000, "reentry-seed")

	var inner error
	bank := &hookedBank{BankKeeper: env.Bank}
	bank.onPayout = func(ctx context.Context) error {
		require.True(t, env.Keeper.InProgress())
		_, inner = env.Keeper.WithdrawEarnings(ctx, env.host, stableDenom)
		return inner
	}
	env.Keeper.SetBankKeeper(bank)

	before := env.Balance(env.host, stableDenom)
	_, err := env.Keeper.WithdrawEarnings(env.Ctx, env.host, stableDenom)
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.ErrorIs(t, inner, types.ErrReentrantCall)
	require.False(t, env.Keeper.InProgress())

	// the outer withdrawal rolled back: earnings intact, nothing paid
	earned, err := env.Keeper.GetEarnings(env.Ctx, env.host, stableDenom)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(180_000), earned)
	require.True(t, env.Balance(env.host, stableDenom).Equal(before))
	env.requireSolvent(t)

	bank.onPayout = nil
	paid, err := env.Keeper.WithdrawEarnings(env.Ctx, env.host, stableDenom)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(180_000), paid)
}

func TestReentrantSettlementRejected(t *testing.T) {
	env := setupWithHost(t)
	first := env.openSession(t)
	second := env.openSession(t)
	env.prove(t, first, 10_000, "r-1")

	var inner error
	bank := &hookedBank{BankKeeper: env.Bank}
	bank.onPayout = func(ctx context.Context) error {
		_, inner = env.Keeper.CompleteSession(ctx, env.depositor, second, "")
		return nil
	}
	env.Keeper.SetBankKeeper(bank)

	_, err := env.Keeper.CompleteSession(env.Ctx, env.depositor, first, "")
	require.NoError(t, err)
	require.ErrorIs(t, inner, types.ErrReentrantCall)

	s, err := env.Keeper.GetSession(env.Ctx, second)
	require.NoError(t, err)
	require.Equal(t, types.SessionStatusActive, s.Status)
	env.requireSolvent(t)
}

func TestMsgServerSharesGuard(t *testing.T) {
	env := setupWithHost(t)
	srv := keeper.NewMsgServerImpl(*env.Keeper)
	id := env.openSession(t)

	var inner error
	bank := &hookedBank{BankKeeper: env.Bank}
	bank.onPayout = func(ctx context.Context) error {
		_, inner = srv.TriggerTimeout(ctx, &types.MsgTriggerTimeout{Caller: env.stranger.String(), SessionID: id})
		return nil
	}
	env.Keeper.SetBankKeeper(bank)
	settleOne(t, env, stableDenom, 1_000, "guard")
	require.ErrorIs(t, inner, types.ErrReentrantCall)
}
