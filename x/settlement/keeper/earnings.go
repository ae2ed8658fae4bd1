package keeper

import (
	"context"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// GetEarnings returns a host's withdrawable balance in denom.
func (k Keeper) GetEarnings(ctx context.Context, host sdk.AccAddress, denom string) (math.Int, error) {
	return getInt(k.getStore(ctx), EarningsKey(host.String(), denom))
}

// GetAllEarnings returns every non-zero balance of a host.
func (k Keeper) GetAllEarnings(ctx context.Context, host sdk.AccAddress) (sdk.Coins, error) {
	store := k.getStore(ctx)
	prefix := EarningsHostPrefix(host.String())
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	coins := sdk.NewCoins()
	for ; iterator.Valid(); iterator.Next() {
		denom := string(iterator.Key()[len(prefix):])
		v, err := getInt(store, iterator.Key())
		if err != nil {
			return nil, err
		}
		coins = coins.Add(sdk.NewCoin(denom, v))
	}
	return coins, nil
}

// IterateEarnings walks every (host, denom) balance.
func (k Keeper) IterateEarnings(ctx context.Context, cb func(types.Earnings) (stop bool)) error {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, EarningsKeyPrefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		host, denom, ok := splitPair(iterator.Key()[len(EarningsKeyPrefix):])
		if !ok {
			return types.ErrRecordCorrupted.Wrapf("earnings key %x", iterator.Key())
		}
		v, err := getInt(store, iterator.Key())
		if err != nil {
			return err
		}
		if cb(types.Earnings{Host: host, Denom: denom, Amount: v}) {
			return nil
		}
	}
	return nil
}

// creditEarnings increases a host's balance. It is only reachable from settlement.
func (k Keeper) creditEarnings(ctx sdk.Context, host, denom string, amt math.Int, sessionID uint64) error {
	if !amt.IsPositive() {
		return nil
	}
	store := k.getStore(ctx)
	key := EarningsKey(host, denom)
	current, err := getInt(store, key)
	if err != nil {
		return err
	}
	if err := setInt(store, key, current.Add(amt)); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeEarningsCredited,
			sdk.NewAttribute(types.AttributeKeyHost, host),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
			sdk.NewAttribute(types.AttributeKeySessionID, uintString(sessionID)),
		),
	)
	return nil
}

// withdrawEarnings zeroes the balance, records the withdrawal and then pays it out.
func (k Keeper) withdrawEarnings(ctx sdk.Context, host sdk.AccAddress, denom string) (math.Int, error) {
	store := k.getStore(ctx)
	key := EarningsKey(host.String(), denom)
	balance, err := getInt(store, key)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !balance.IsPositive() {
		return math.ZeroInt(), types.ErrNoEarnings.Wrapf("host %s denom %s", host, denom)
	}
	store.Delete(key)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeEarningsWithdrawn,
			sdk.NewAttribute(types.AttributeKeyHost, host.String()),
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, balance.String()),
		),
	)
	if err := k.appendAudit(ctx, auditEntry{
		kind:    AuditKindEarningsWithdrawn,
		actor:   host.String(),
		host:    host.String(),
		amounts: []types.AuditAmount{amount("withdrawn", denom, balance)},
	}); err != nil {
		return math.ZeroInt(), err
	}
	addAmount(k.metrics.EarningsWithdrawn.WithLabelValues(denom), balance)

	if err := k.payOut(ctx, host, denom, balance); err != nil {
		return math.ZeroInt(), err
	}
	return balance, nil
}

// WithdrawEarnings pays out the caller's full balance in denom.
func (k Keeper) WithdrawEarnings(ctx context.Context, host sdk.AccAddress, denom string) (math.Int, error) {
	paid := math.ZeroInt()
	err := k.execute(ctx, types.TypeMsgWithdrawEarnings, func(ctx sdk.Context) error {
		var err error
		paid, err = k.withdrawEarnings(ctx, host, denom)
		return err
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return paid, nil
}

// WithdrawAllEarnings pays out every non-zero balance of the caller.
func (k Keeper) WithdrawAllEarnings(ctx context.Context, host sdk.AccAddress) (sdk.Coins, error) {
	var paid sdk.Coins
	err := k.execute(ctx, types.TypeMsgWithdrawAllEarnings, func(ctx sdk.Context) error {
		balances, err := k.GetAllEarnings(ctx, host)
		if err != nil {
			return err
		}
		if balances.IsZero() {
			return types.ErrNoEarnings.Wrapf("host %s", host)
		}
		paid = sdk.NewCoins()
		for _, coin := range balances {
			amt, err := k.withdrawEarnings(ctx, host, coin.Denom)
			if err != nil {
				return err
			}
			paid = paid.Add(sdk.NewCoin(coin.Denom, amt))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
