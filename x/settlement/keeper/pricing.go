package keeper

import (
	"context"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func (k Keeper) setModelPrice(ctx context.Context, host, modelID string, class types.AssetClass, price math.Int) error {
	return setInt(k.getStore(ctx), ModelPriceKey(host, modelID, class), price)
}

// seedModelPrices copies the host-level prices onto a newly supported model.
func (k Keeper) seedModelPrices(ctx context.Context, h types.Host, modelID string) error {
	for _, class := range types.AllAssetClasses {
		if err := k.setModelPrice(ctx, h.Address, modelID, class, h.HostPrice(class)); err != nil {
			return err
		}
	}
	return nil
}

func (k Keeper) deleteModelPrices(ctx context.Context, host, modelID string) {
	store := k.getStore(ctx)
	for _, class := range types.AllAssetClasses {
		store.Delete(ModelPriceKey(host, modelID, class))
	}
}

func (k Keeper) deleteAllPrices(ctx context.Context, host string) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, ModelPriceHostPrefix(host))
	var keys [][]byte
	for ; iterator.Valid(); iterator.Next() {
		keys = append(keys, iterator.Key())
	}
	iterator.Close()
	for _, key := range keys {
		store.Delete(key)
	}
}

// GetModelPrice returns the explicit minimum price a host published for (model, class).
func (k Keeper) GetModelPrice(ctx context.Context, host sdk.AccAddress, modelID string, class types.AssetClass) (math.Int, error) {
	store := k.getStore(ctx)
	key := ModelPriceKey(host.String(), modelID, class)
	if !store.Has(key) {
		return math.ZeroInt(), types.ErrPriceNotSet.Wrapf("host %s model %q class %s", host, modelID, class)
	}
	return getInt(store, key)
}

// ListModelPrices returns every (model, class) price of a host.
func (k Keeper) ListModelPrices(ctx context.Context, host sdk.AccAddress) ([]types.ModelPrice, error) {
	h, err := k.GetHost(ctx, host)
	if err != nil {
		return nil, err
	}
	prices := []types.ModelPrice{}
	for _, modelID := range h.SupportedModels {
		for _, class := range types.AllAssetClasses {
			price, err := k.GetModelPrice(ctx, host, modelID, class)
			if err != nil {
				continue
			}
			prices = append(prices, types.ModelPrice{Host: h.Address, ModelID: modelID, Class: class, Price: price})
		}
	}
	return prices, nil
}

// resolveMinPrice finds the minimum price that applies to a new session. A model
// session uses the (host, model, class) entry; a model-less session uses the
// host-level class price. A missing entry is a hard rejection.
func (k Keeper) resolveMinPrice(ctx context.Context, h types.Host, modelID string, class types.AssetClass) (math.Int, error) {
	if modelID == "" {
		price := h.HostPrice(class)
		if price.IsNil() || !price.IsPositive() {
			return math.ZeroInt(), types.ErrPriceNotSet.Wrapf("host %s class %s", h.Address, class)
		}
		return price, nil
	}
	addr, err := sdk.AccAddressFromBech32(h.Address)
	if err != nil {
		return math.ZeroInt(), types.ErrRecordCorrupted.Wrapf("host address %q: %v", h.Address, err)
	}
	return k.GetModelPrice(ctx, addr, modelID, class)
}

// UpdatePricing sets the host-level minimum price for an asset class. The new
// price applies to model-less sessions and seeds models added later. Existing
// (model, class) entries keep their price; use SetModelPricing to change them.
func (k Keeper) UpdatePricing(ctx context.Context, host sdk.AccAddress, class types.AssetClass, price math.Int) error {
	return k.execute(ctx, types.TypeMsgUpdatePricing, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := params.ValidatePrice(class, price); err != nil {
			return err
		}
		if class == types.AssetClassNative {
			h.MinPriceNative = price
		} else {
			h.MinPriceStable = price
		}
		if err := k.setHost(ctx, h); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostPricingUpdated,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyAssetClass, string(class)),
				sdk.NewAttribute(types.AttributeKeyPricePerUnit, price.String()),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindHostPricing,
			actor: h.Address,
			host:  h.Address,
			refs:  map[string]string{"class": string(class), "price": price.String()},
		})
	})
}

// SetModelPricing publishes an explicit price for one of the host's models.
func (k Keeper) SetModelPricing(ctx context.Context, host sdk.AccAddress, modelID string, class types.AssetClass, price math.Int) error {
	return k.execute(ctx, types.TypeMsgSetModelPricing, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		if !h.SupportsModel(modelID) {
			return types.ErrModelNotSupported.Wrapf("host %s does not support %q", h.Address, modelID)
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := params.ValidatePrice(class, price); err != nil {
			return err
		}
		if err := k.setModelPrice(ctx, h.Address, modelID, class, price); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostModelPricing,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyModelID, modelID),
				sdk.NewAttribute(types.AttributeKeyAssetClass, string(class)),
				sdk.NewAttribute(types.AttributeKeyPricePerUnit, price.String()),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindHostModelPricing,
			actor: h.Address,
			host:  h.Address,
			refs:  map[string]string{"model_id": modelID, "class": string(class), "price": price.String()},
		})
	})
}

// ClearModelPricing removes a (model, class) price. Sessions for that pair are
// rejected until a price is published again.
func (k Keeper) ClearModelPricing(ctx context.Context, host sdk.AccAddress, modelID string, class types.AssetClass) error {
	return k.execute(ctx, types.TypeMsgClearModelPricing, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		if err := class.Validate(); err != nil {
			return err
		}
		store := k.getStore(ctx)
		key := ModelPriceKey(h.Address, modelID, class)
		if !store.Has(key) {
			return types.ErrPriceNotSet.Wrapf("host %s model %q class %s", h.Address, modelID, class)
		}
		store.Delete(key)

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostModelPricing,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyModelID, modelID),
				sdk.NewAttribute(types.AttributeKeyAssetClass, string(class)),
				sdk.NewAttribute(types.AttributeKeyPricePerUnit, ""),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindHostModelPricing,
			actor: h.Address,
			host:  h.Address,
			refs:  map[string]string{"model_id": modelID, "class": string(class), "cleared": "true"},
		})
	})
}
