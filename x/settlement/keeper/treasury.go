package keeper

import (
	"context"
	"strings"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
)

// GetTreasury returns the accumulated protocol revenue for denom.
func (k Keeper) GetTreasury(ctx context.Context, denom string) (math.Int, error) {
	return getInt(k.getStore(ctx), TreasuryKey(denom))
}

// GetAllTreasury returns every non-zero accumulator.
func (k Keeper) GetAllTreasury(ctx context.Context) ([]types.TreasuryBalance, error) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, TreasuryKeyPrefix)
	defer iterator.Close()

	balances := []types.TreasuryBalance{}
	for ; iterator.Valid(); iterator.Next() {
		denom := strings.TrimPrefix(string(iterator.Key()), string(TreasuryKeyPrefix))
		v, err := getInt(store, iterator.Key())
		if err != nil {
			return nil, err
		}
		balances = append(balances, types.TreasuryBalance{Denom: denom, Amount: v})
	}
	return balances, nil
}

// accrueTreasury increases a denom's accumulator. source labels the revenue in
// events and metrics.
func (k Keeper) accrueTreasury(ctx sdk.Context, denom string, amt math.Int, source string) error {
	if !amt.IsPositive() {
		return nil
	}
	store := k.getStore(ctx)
	current, err := getInt(store, TreasuryKey(denom))
	if err != nil {
		return err
	}
	if err := setInt(store, TreasuryKey(denom), current.Add(amt)); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTreasuryAccrued,
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
			sdk.NewAttribute(types.AttributeKeyReason, source),
		),
	)
	addAmount(k.metrics.TreasuryAccrued.WithLabelValues(denom, source), amt)
	return nil
}

// WithdrawTreasury moves accumulated revenue to recipient. Only the module authority
// may withdraw, and never more than has accrued.
func (k Keeper) WithdrawTreasury(ctx context.Context, authority string, recipient sdk.AccAddress, denom string, amt math.Int) error {
	return k.execute(ctx, types.TypeMsgWithdrawTreasury, func(ctx sdk.Context) error {
		if err := sharedkeeper.ValidateAuthority(k.authority, authority); err != nil {
			return types.ErrInvalidAuthority.Wrap(err.Error())
		}
		if amt.IsNil() || !amt.IsPositive() {
			return types.ErrInvalidAmount.Wrap("withdrawal amount must be positive")
		}
		store := k.getStore(ctx)
		current, err := getInt(store, TreasuryKey(denom))
		if err != nil {
			return err
		}
		if amt.GT(current) {
			return types.ErrInsufficientTreasury.Wrapf("requested %s%s, accrued %s%s", amt, denom, current, denom)
		}
		if err := setInt(store, TreasuryKey(denom), current.Sub(amt)); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeTreasuryWithdrawn,
				sdk.NewAttribute(types.AttributeKeyRecipient, recipient.String()),
				sdk.NewAttribute(types.AttributeKeyDenom, denom),
				sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
			),
		)
		if err := k.appendAudit(ctx, auditEntry{
			kind:    AuditKindTreasuryWithdrawn,
			actor:   authority,
			amounts: []types.AuditAmount{amount("withdrawn", denom, amt)},
			refs:    map[string]string{"recipient": recipient.String()},
		}); err != nil {
			return err
		}
		addAmount(k.metrics.TreasuryWithdrawn.WithLabelValues(denom), amt)
		return k.payOut(ctx, recipient, denom, amt)
	})
}
