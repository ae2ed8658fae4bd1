package keeper

import (
	"context"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// GetHost returns a registered host.
func (k Keeper) GetHost(ctx context.Context, host sdk.AccAddress) (types.Host, error) {
	h, found, err := getRecord[types.Host](k.getStore(ctx), HostKey(host.String()))
	if err != nil {
		return types.Host{}, err
	}
	if !found {
		return types.Host{}, types.ErrHostNotFound.Wrapf("host %s", host)
	}
	return h, nil
}

func (k Keeper) setHost(ctx context.Context, h types.Host) error {
	h.SchemaVersion = types.SchemaVersion
	return setRecord(k.getStore(ctx), HostKey(h.Address), h)
}

// activeHost loads the caller's host record and rejects anyone who is not an
// active registered host.
func (k Keeper) activeHost(ctx context.Context, caller sdk.AccAddress) (types.Host, error) {
	h, err := k.GetHost(ctx, caller)
	if err != nil {
		return types.Host{}, err
	}
	if !h.Active {
		return types.Host{}, types.ErrHostNotActive.Wrapf("host %s", caller)
	}
	return h, nil
}

// validateModels checks a host's model list against the whitelist and size limits.
func (k Keeper) validateModels(ctx context.Context, params types.Params, modelIDs []string) error {
	if len(modelIDs) == 0 {
		return types.ErrNoModels
	}
	if uint64(len(modelIDs)) > params.MaxModelsPerHost {
		return types.ErrTooManyModels.Wrapf("%d models exceeds limit %d", len(modelIDs), params.MaxModelsPerHost)
	}
	seen := make(map[string]struct{}, len(modelIDs))
	for _, id := range modelIDs {
		if _, dup := seen[id]; dup {
			return types.ErrDuplicateModel.Wrapf("model %q", id)
		}
		seen[id] = struct{}{}
		if !k.whitelist.IsApproved(ctx, id) {
			return types.ErrModelNotApproved.Wrapf("model %q", id)
		}
	}
	return nil
}

func validateMetadata(params types.Params, metadata string) error {
	if uint64(len(metadata)) > params.MaxMetadataLength {
		return types.ErrInvalidMetadata.Wrapf("metadata exceeds %d bytes", params.MaxMetadataLength)
	}
	return nil
}

func validateEndpoint(params types.Params, endpoint string) error {
	if uint64(len(endpoint)) > params.MaxEndpointLength {
		return types.ErrInvalidEndpoint.Wrapf("endpoint exceeds %d bytes", params.MaxEndpointLength)
	}
	if strings.ContainsAny(endpoint, " \t\r\n") {
		return types.ErrInvalidEndpoint.Wrap("endpoint contains whitespace")
	}
	return nil
}

// RegisterHost escrows exactly MinHostStake of the native denom from the caller and
// registers it with the given models and host-level prices. Every model's
// (model, class) price is seeded from the host-level prices.
func (k Keeper) RegisterHost(
	ctx context.Context,
	host sdk.AccAddress,
	metadata, endpoint string,
	modelIDs []string,
	minPriceNative, minPriceStable math.Int,
) error {
	return k.execute(ctx, types.TypeMsgRegisterHost, func(ctx sdk.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		store := k.getStore(ctx)
		if store.Has(HostKey(host.String())) {
			return types.ErrHostAlreadyRegistered.Wrapf("host %s", host)
		}
		if err := k.validateModels(ctx, params, modelIDs); err != nil {
			return err
		}
		if err := params.ValidatePrice(types.AssetClassNative, minPriceNative); err != nil {
			return err
		}
		if err := params.ValidatePrice(types.AssetClassStable, minPriceStable); err != nil {
			return err
		}
		if err := validateMetadata(params, metadata); err != nil {
			return err
		}
		if err := validateEndpoint(params, endpoint); err != nil {
			return err
		}

		stake := params.MinHostStake
		if err := k.escrowIn(ctx, host, params.NativeDenom, stake); err != nil {
			return err
		}

		h := types.Host{
			Address:         host.String(),
			Stake:           stake,
			Active:          true,
			Metadata:        metadata,
			Endpoint:        endpoint,
			SupportedModels: append([]string{}, modelIDs...),
			MinPriceNative:  minPriceNative,
			MinPriceStable:  minPriceStable,
			RegisteredAt:    ctx.BlockTime().UTC(),
			TotalSlashed:    math.ZeroInt(),
		}
		if err := k.setHost(ctx, h); err != nil {
			return err
		}
		activeHostIndex().add(store, h.Address)
		for _, id := range modelIDs {
			modelHostIndex(id).add(store, h.Address)
			if err := k.seedModelPrices(ctx, h, id); err != nil {
				return err
			}
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostRegistered,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyStake, stake.String()),
				sdk.NewAttribute(types.AttributeKeyModelID, strings.Join(modelIDs, ",")),
			),
		)
		k.metrics.HostsRegistered.Inc()
		k.metrics.HostsActive.Set(float64(activeHostIndex().len(store)))

		return k.appendAudit(ctx, auditEntry{
			kind:    AuditKindHostRegistered,
			actor:   h.Address,
			host:    h.Address,
			amounts: []types.AuditAmount{amount("stake", params.NativeDenom, stake)},
			refs:    map[string]string{"endpoint": endpoint, "models": strings.Join(modelIDs, ",")},
		})
	})
}

// UpdateMetadata replaces the host's metadata.
func (k Keeper) UpdateMetadata(ctx context.Context, host sdk.AccAddress, metadata string) error {
	return k.execute(ctx, types.TypeMsgUpdateMetadata, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := validateMetadata(params, metadata); err != nil {
			return err
		}
		h.Metadata = metadata
		if err := k.setHost(ctx, h); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostMetadataUpdated,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
			),
		)
		return k.appendAudit(ctx, auditEntry{kind: AuditKindHostMetadata, actor: h.Address, host: h.Address})
	})
}

// UpdateEndpoint replaces the host's service endpoint.
func (k Keeper) UpdateEndpoint(ctx context.Context, host sdk.AccAddress, endpoint string) error {
	return k.execute(ctx, types.TypeMsgUpdateEndpoint, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := validateEndpoint(params, endpoint); err != nil {
			return err
		}
		h.Endpoint = endpoint
		if err := k.setHost(ctx, h); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostEndpointUpdated,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindHostEndpoint,
			actor: h.Address,
			host:  h.Address,
			refs:  map[string]string{"endpoint": endpoint},
		})
	})
}

// UpdateSupportedModels replaces the host's model list. Added models are indexed and
// seeded from the host-level prices; removed models lose their index entry and prices.
func (k Keeper) UpdateSupportedModels(ctx context.Context, host sdk.AccAddress, modelIDs []string) error {
	return k.execute(ctx, types.TypeMsgUpdateSupportedModels, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := k.validateModels(ctx, params, modelIDs); err != nil {
			return err
		}

		store := k.getStore(ctx)
		next := make(map[string]bool, len(modelIDs))
		for _, id := range modelIDs {
			next[id] = true
		}
		for _, id := range h.SupportedModels {
			if !next[id] {
				modelHostIndex(id).remove(store, h.Address)
				k.deleteModelPrices(ctx, h.Address, id)
			}
		}
		for _, id := range modelIDs {
			if !h.SupportsModel(id) {
				modelHostIndex(id).add(store, h.Address)
				if err := k.seedModelPrices(ctx, h, id); err != nil {
					return err
				}
			}
		}

		h.SupportedModels = append([]string{}, modelIDs...)
		if err := k.setHost(ctx, h); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostModelsUpdated,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyModelID, strings.Join(modelIDs, ",")),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:  AuditKindHostModels,
			actor: h.Address,
			host:  h.Address,
			refs:  map[string]string{"models": strings.Join(modelIDs, ",")},
		})
	})
}

// AddStake escrows additional native stake from the host.
func (k Keeper) AddStake(ctx context.Context, host sdk.AccAddress, amt math.Int) error {
	return k.execute(ctx, types.TypeMsgAddStake, func(ctx sdk.Context) error {
		if amt.IsNil() || !amt.IsPositive() {
			return types.ErrInvalidAmount.Wrap("stake amount must be positive")
		}
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := k.escrowIn(ctx, host, params.NativeDenom, amt); err != nil {
			return err
		}
		h.Stake = h.Stake.Add(amt)
		if err := k.setHost(ctx, h); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostStakeAdded,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
				sdk.NewAttribute(types.AttributeKeyStake, h.Stake.String()),
			),
		)
		return k.appendAudit(ctx, auditEntry{
			kind:    AuditKindHostStakeAdded,
			actor:   h.Address,
			host:    h.Address,
			amounts: []types.AuditAmount{amount("added", params.NativeDenom, amt), amount("stake", params.NativeDenom, h.Stake)},
		})
	})
}

// UnregisterHost removes the host from both registries, deletes its record and prices
// and returns the full stake.
func (k Keeper) UnregisterHost(ctx context.Context, host sdk.AccAddress) (math.Int, error) {
	returned := math.ZeroInt()
	err := k.execute(ctx, types.TypeMsgUnregisterHost, func(ctx sdk.Context) error {
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		returned, err = k.removeHost(ctx, params, h, h.Address, "voluntary")
		return err
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return returned, nil
}

// removeHost deletes every trace of h and returns its remaining stake. It is shared
// by voluntary unregistration and slash-driven unregistration.
func (k Keeper) removeHost(ctx sdk.Context, params types.Params, h types.Host, actor, reason string) (math.Int, error) {
	store := k.getStore(ctx)
	activeHostIndex().remove(store, h.Address)
	for _, id := range h.SupportedModels {
		modelHostIndex(id).remove(store, h.Address)
	}
	k.deleteAllPrices(ctx, h.Address)
	store.Delete(HostKey(h.Address))

	stake := h.Stake
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeHostUnregistered,
			sdk.NewAttribute(types.AttributeKeyHost, h.Address),
			sdk.NewAttribute(types.AttributeKeyStakeReturned, stake.String()),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		),
	)
	k.metrics.HostsActive.Set(float64(activeHostIndex().len(store)))
	if err := k.appendAudit(ctx, auditEntry{
		kind:    AuditKindHostUnregistered,
		actor:   actor,
		host:    h.Address,
		amounts: []types.AuditAmount{amount("stake_returned", params.NativeDenom, stake)},
		refs:    map[string]string{"reason": reason},
	}); err != nil {
		return math.ZeroInt(), err
	}

	addr, err := sdk.AccAddressFromBech32(h.Address)
	if err != nil {
		return math.ZeroInt(), types.ErrRecordCorrupted.Wrapf("host address %q: %v", h.Address, err)
	}
	if err := k.payOut(ctx, addr, params.NativeDenom, stake); err != nil {
		return math.ZeroInt(), err
	}
	k.Logger(ctx).Info("host unregistered", "host", h.Address, "reason", reason, "stake_returned", stake.String())
	return stake, nil
}

// ListActiveHosts returns registered hosts in dense-index order.
func (k Keeper) ListActiveHosts(ctx context.Context, offset, limit uint64) ([]types.Host, uint64, error) {
	store := k.getStore(ctx)
	idx := activeHostIndex()
	hosts, err := k.loadHosts(ctx, idx.page(store, offset, limit))
	return hosts, idx.len(store), err
}

// ListHostsForModel returns hosts advertising modelID in dense-index order.
func (k Keeper) ListHostsForModel(ctx context.Context, modelID string, offset, limit uint64) ([]types.Host, uint64, error) {
	store := k.getStore(ctx)
	idx := modelHostIndex(modelID)
	hosts, err := k.loadHosts(ctx, idx.page(store, offset, limit))
	return hosts, idx.len(store), err
}

func (k Keeper) loadHosts(ctx context.Context, addrs []string) ([]types.Host, error) {
	store := k.getStore(ctx)
	hosts := make([]types.Host, 0, len(addrs))
	for _, addr := range addrs {
		h, found, err := getRecord[types.Host](store, HostKey(addr))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.ErrRecordCorrupted.Wrapf("index references missing host %s", addr)
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// IterateHosts walks every host record in address order.
func (k Keeper) IterateHosts(ctx context.Context, cb func(types.Host) (stop bool, err error)) error {
	return iterateRecords(k.getStore(ctx), HostKeyPrefix, func(_ []byte, h types.Host) (bool, error) {
		return cb(h)
	})
}
