package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// SetDelegate grants or revokes delegate's right to open sessions paid by payer.
// Revocation does not affect sessions that already exist.
func (k Keeper) SetDelegate(ctx context.Context, payer, delegate sdk.AccAddress, authorized bool) error {
	return k.execute(ctx, types.TypeMsgSetDelegate, func(ctx sdk.Context) error {
		if payer.Equals(delegate) {
			return types.ErrSelfDelegation
		}
		store := k.getStore(ctx)
		key := DelegationKey(payer.String(), delegate.String())
		if authorized {
			if err := setRecord(store, key, types.Delegation{
				Payer:      payer.String(),
				Delegate:   delegate.String(),
				Authorized: true,
				UpdatedAt:  ctx.BlockTime().UTC(),
			}); err != nil {
				return err
			}
		} else {
			store.Delete(key)
		}

		eventType := types.EventTypeDelegateAuthorized
		if !authorized {
			eventType = types.EventTypeDelegateRevoked
		}
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				eventType,
				sdk.NewAttribute(types.AttributeKeyDepositor, payer.String()),
				sdk.NewAttribute(types.AttributeKeyDelegate, delegate.String()),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindDelegateSet,
			actor: payer.String(),
			refs:  map[string]string{"delegate": delegate.String(), "authorized": boolString(authorized)},
		})
	})
}

// IsAuthorizedDelegate reports whether delegate may open sessions paid by payer.
// A payer is always authorized for itself.
func (k Keeper) IsAuthorizedDelegate(ctx context.Context, payer, delegate sdk.AccAddress) bool {
	if payer.Equals(delegate) {
		return true
	}
	d, found, err := getRecord[types.Delegation](k.getStore(ctx), DelegationKey(payer.String(), delegate.String()))
	return err == nil && found && d.Authorized
}

// IterateDelegations walks every active authorization.
func (k Keeper) IterateDelegations(ctx context.Context, cb func(types.Delegation) (stop bool, err error)) error {
	return iterateRecords(k.getStore(ctx), DelegationKeyPrefix, func(_ []byte, d types.Delegation) (bool, error) {
		return cb(d)
	})
}
