package keeper

import (
	"fmt"
	"runtime/debug"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// safeExecute runs fn and converts a panic into ErrPanicRecovered.
func safeExecute(ctx sdk.Context, op string, fn func(ctx sdk.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverPanic(ctx, op, r)
		}
	}()
	return fn(ctx)
}

func recoverPanic(ctx sdk.Context, op string, r interface{}) error {
	ctx.Logger().With("module", "x/"+types.ModuleName).Error("panic recovered",
		"op", op,
		"panic", fmt.Sprintf("%v", r),
		"stack_trace", string(debug.Stack()),
	)
	return types.ErrPanicRecovered.Wrapf("%s: %v", op, r)
}
