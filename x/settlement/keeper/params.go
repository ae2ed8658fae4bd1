package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
)

// GetParams returns the current settlement parameters. A store without params
// yields the defaults so queries work before genesis.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	params, found, err := getRecord[types.Params](k.getStore(ctx), ParamsKey)
	if err != nil {
		return types.Params{}, err
	}
	if !found {
		return types.DefaultParams(), nil
	}
	return params, nil
}

// SetParams validates and stores params.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return setRecord(k.getStore(ctx), ParamsKey, params)
}

// SlashingAuthority returns the address allowed to slash hosts.
func (k Keeper) SlashingAuthority(params types.Params) string {
	if params.SlashingAuthority != "" {
		return params.SlashingAuthority
	}
	return k.authority
}

// UpdateParams replaces the parameters; only the module authority may call it.
func (k Keeper) UpdateParams(ctx context.Context, authority string, params types.Params) error {
	return k.execute(ctx, types.TypeMsgUpdateParams, func(ctx sdk.Context) error {
		if err := sharedkeeper.ValidateAuthority(k.authority, authority); err != nil {
			return types.ErrInvalidAuthority.Wrap(err.Error())
		}
		if err := k.SetParams(ctx, params); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeParamsUpdated,
				sdk.NewAttribute(types.AttributeKeyActor, authority),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindParamsUpdated,
			actor: authority,
			refs:  map[string]string{"params": params.String()},
		})
	})
}
