package keeper

import (
	"context"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// callGuard is the in-progress marker held by every state-mutating operation.
// It lives only in memory and is released when the operation returns.
type callGuard struct {
	mu     sync.Mutex
	active bool
	op     string
}

func (g *callGuard) enter(op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return nil, types.ErrReentrantCall.Wrapf("%s called while %s is in progress", op, g.op)
	}
	g.active = true
	g.op = op
	return func() {
		g.mu.Lock()
		g.active = false
		g.op = ""
		g.mu.Unlock()
	}, nil
}

// InProgress reports whether a mutating operation currently holds the guard.
func (k Keeper) InProgress() bool {
	k.guard.mu.Lock()
	defer k.guard.mu.Unlock()
	return k.guard.active
}

// execute runs fn as one all-or-nothing operation: it holds the call guard, runs
// against a branched store and writes the branch back only when fn succeeds. A
// panic inside fn discards the branch and surfaces as ErrPanicRecovered.
func (k Keeper) execute(ctx context.Context, op string, fn func(ctx sdk.Context) error) error {
	release, err := k.guard.enter(op)
	if err != nil {
		k.metrics.OperationFailures.WithLabelValues(op, string(types.CategoryOf(err))).Inc()
		return err
	}
	defer release()

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()
	if err := safeExecute(cacheCtx, op, fn); err != nil {
		k.metrics.OperationFailures.WithLabelValues(op, string(types.CategoryOf(err))).Inc()
		k.Logger(ctx).Debug("operation rejected", "op", op, "error", err)
		return err
	}
	write()
	k.metrics.Operations.WithLabelValues(op).Inc()
	return nil
}
