package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
	"github.com/paw-chain/settlement/x/whitelist/types"
)

// Keeper stores the governance-approved model set.
type Keeper struct {
	storeKey  storetypes.StoreKey
	authority string
}

type kvStoreProvider interface {
	KVStore(key storetypes.StoreKey) storetypes.KVStore
}

// NewKeeper creates a new whitelist Keeper instance
func NewKeeper(key storetypes.StoreKey, authority string) *Keeper {
	return &Keeper{
		storeKey:  key,
		authority: authority,
	}
}

// GetAuthority returns the address allowed to approve and revoke models.
func (k Keeper) GetAuthority() string {
	return k.authority
}

func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	if provider, ok := ctx.(kvStoreProvider); ok {
		return provider.KVStore(k.storeKey)
	}
	return sdk.UnwrapSDKContext(ctx).KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// ApproveModel adds a model to the whitelist.
func (k Keeper) ApproveModel(ctx context.Context, authority string, model types.ApprovedModel) error {
	if err := sharedkeeper.ValidateAuthority(k.authority, authority); err != nil {
		return err
	}
	if err := types.ValidateModelID(model.ID); err != nil {
		return err
	}
	if k.IsApproved(ctx, model.ID) {
		return types.ErrModelExists.Wrapf("model %s", model.ID)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	model.ApprovedBy = authority
	model.ApprovedAt = sdkCtx.BlockTime().UTC()
	if err := k.setModel(ctx, model); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(sdk.NewEvent(
		"whitelist_model_approved",
		sdk.NewAttribute("model_id", model.ID),
		sdk.NewAttribute("authority", authority),
	))
	k.Logger(ctx).Info("model approved", "model_id", model.ID)
	return nil
}

// RevokeModel removes a model from the whitelist. Hosts that already advertise the
// model keep it until they update their model list; new registrations reject it.
func (k Keeper) RevokeModel(ctx context.Context, authority, modelID string) error {
	if err := sharedkeeper.ValidateAuthority(k.authority, authority); err != nil {
		return err
	}
	if !k.IsApproved(ctx, modelID) {
		return types.ErrModelNotFound.Wrapf("model %s", modelID)
	}
	k.getStore(ctx).Delete(types.ModelKey(modelID))

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(
		"whitelist_model_revoked",
		sdk.NewAttribute("model_id", modelID),
		sdk.NewAttribute("authority", authority),
	))
	k.Logger(ctx).Info("model revoked", "model_id", modelID)
	return nil
}

// IsApproved reports whether modelID is on the whitelist.
func (k Keeper) IsApproved(ctx context.Context, modelID string) bool {
	if modelID == "" {
		return false
	}
	return k.getStore(ctx).Has(types.ModelKey(modelID))
}

// GetModel returns an approved model record.
func (k Keeper) GetModel(ctx context.Context, modelID string) (types.ApprovedModel, error) {
	bz := k.getStore(ctx).Get(types.ModelKey(modelID))
	if bz == nil {
		return types.ApprovedModel{}, types.ErrModelNotFound.Wrapf("model %s", modelID)
	}
	var model types.ApprovedModel
	if err := json.Unmarshal(bz, &model); err != nil {
		return types.ApprovedModel{}, types.ErrRecordCorrupted.Wrapf("model %s: %v", modelID, err)
	}
	return model, nil
}

// ListModels returns all approved models sorted by id.
func (k Keeper) ListModels(ctx context.Context) ([]types.ApprovedModel, error) {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), types.ModelKeyPrefix)
	defer iterator.Close()

	var models []types.ApprovedModel
	for ; iterator.Valid(); iterator.Next() {
		var model types.ApprovedModel
		if err := json.Unmarshal(iterator.Value(), &model); err != nil {
			return nil, types.ErrRecordCorrupted.Wrapf("key %x: %v", iterator.Key(), err)
		}
		models = append(models, model)
	}
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})
	return models, nil
}

func (k Keeper) setModel(ctx context.Context, model types.ApprovedModel) error {
	bz, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to marshal model %s: %w", model.ID, err)
	}
	k.getStore(ctx).Set(types.ModelKey(model.ID), bz)
	return nil
}

// InitGenesis loads the approved model set.
func (k Keeper) InitGenesis(ctx context.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	for _, model := range gs.Models {
		if err := k.setModel(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

// ExportGenesis returns the approved model set.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	models, err := k.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []types.ApprovedModel{}
	}
	return &types.GenesisState{Models: models}, nil
}
