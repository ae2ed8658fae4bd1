package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// escrowIn pulls amount from owner into the module account (transferFrom).
func (k Keeper) escrowIn(ctx sdk.Context, owner sdk.AccAddress, denom string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, owner, types.ModuleName, coins); err != nil {
		return types.ErrInsufficientFunds.Wrapf("escrow %s from %s: %v", coins, owner, err)
	}
	return nil
}

// payOut sends amount from the module account to recipient (transfer). Callers must
// finish all bookkeeping before calling it.
func (k Keeper) payOut(ctx sdk.Context, recipient sdk.AccAddress, denom string, amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, recipient, coins); err != nil {
		return types.ErrTransferFailed.Wrapf("pay %s to %s: %v", coins, recipient, err)
	}
	return nil
}
