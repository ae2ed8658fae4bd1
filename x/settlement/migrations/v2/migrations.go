package v2

import (
	"encoding/json"
	"fmt"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

var (
	// Key prefixes - must match the keeper
	ParamsKey           = []byte{0x01}
	HostKeyPrefix       = []byte{0x02}
	ModelPriceKeyPrefix = []byte{0x03}
	SessionKeyPrefix    = []byte{0x04}
)

const keySeparator = byte(0x00)

// Migrate implements store migrations from v1 to v2 for the settlement module.
// This migration performs the following operations:
// 1. Fills params fields introduced in v2 with their defaults
// 2. Stamps host records with the schema version
// 3. Seeds missing (host, model, class) prices from host-level prices
// 4. Stamps session records with the schema version
//
// Dense host indexes are rebuilt by the keeper after Migrate returns.
func Migrate(ctx sdk.Context, storeKey storetypes.StoreKey) error {
	ctx.Logger().Info("Starting settlement module v1 to v2 migration")

	store := ctx.KVStore(storeKey)

	if err := migrateParams(ctx, store); err != nil {
		return fmt.Errorf("failed to migrate params: %w", err)
	}

	if err := migrateHosts(ctx, store); err != nil {
		return fmt.Errorf("failed to migrate hosts: %w", err)
	}

	if err := migrateSessions(ctx, store); err != nil {
		return fmt.Errorf("failed to migrate sessions: %w", err)
	}

	ctx.Logger().Info("Settlement module v1 to v2 migration completed successfully")
	return nil
}

// migrateParams fills zero-valued v2 fields from the defaults
func migrateParams(ctx sdk.Context, store storetypes.KVStore) error {
	bz := store.Get(ParamsKey)
	if bz == nil {
		ctx.Logger().Info("No params stored, keeper defaults apply")
		return nil
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}

	defaults := types.DefaultParams()
	if params.MaxContentRefLength == 0 {
		params.MaxContentRefLength = defaults.MaxContentRefLength
	}
	if params.MaxModelsPerHost == 0 {
		params.MaxModelsPerHost = defaults.MaxModelsPerHost
	}
	if params.MaxMetadataLength == 0 {
		params.MaxMetadataLength = defaults.MaxMetadataLength
	}
	if params.MaxEndpointLength == 0 {
		params.MaxEndpointLength = defaults.MaxEndpointLength
	}
	if params.TimeoutIntervalMultiplier == 0 {
		params.TimeoutIntervalMultiplier = defaults.TimeoutIntervalMultiplier
	}
	if params.SlashCooldownSeconds == 0 {
		params.SlashCooldownSeconds = defaults.SlashCooldownSeconds
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("migrated params invalid: %w", err)
	}

	out, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	store.Set(ParamsKey, out)
	return nil
}

// migrateHosts stamps hosts and seeds per-model prices that v1 never wrote
func migrateHosts(ctx sdk.Context, store storetypes.KVStore) error {
	ctx.Logger().Info("Migrating host records")

	hosts, err := loadAll[types.Host](store, HostKeyPrefix)
	if err != nil {
		return err
	}

	seeded := 0
	for _, h := range hosts {
		for _, modelID := range h.SupportedModels {
			for _, class := range types.AllAssetClasses {
				key := modelPriceKey(h.Address, modelID, class)
				if store.Has(key) {
					continue
				}
				price := h.HostPrice(class)
				if price.IsNil() || !price.IsPositive() {
					continue
				}
				bz, err := price.Marshal()
				if err != nil {
					return fmt.Errorf("failed to encode price for %s: %w", h.Address, err)
				}
				store.Set(key, bz)
				seeded++
			}
		}

		h.SchemaVersion = types.SchemaVersion
		bz, err := json.Marshal(h)
		if err != nil {
			return fmt.Errorf("failed to encode host %s: %w", h.Address, err)
		}
		store.Set(append(append([]byte{}, HostKeyPrefix...), h.Address...), bz)
	}

	ctx.Logger().Info("Host records migrated", "hosts", len(hosts), "prices_seeded", seeded)
	return nil
}

// migrateSessions stamps every session with the schema version
func migrateSessions(ctx sdk.Context, store storetypes.KVStore) error {
	ctx.Logger().Info("Migrating session records")

	iterator := storetypes.KVStorePrefixIterator(store, SessionKeyPrefix)
	type entry struct {
		key []byte
		bz  []byte
	}
	var updates []entry
	for ; iterator.Valid(); iterator.Next() {
		var s types.SessionJob
		if err := json.Unmarshal(iterator.Value(), &s); err != nil {
			iterator.Close()
			return fmt.Errorf("failed to decode session at %x: %w", iterator.Key(), err)
		}
		if s.SchemaVersion == types.SchemaVersion {
			continue
		}
		s.SchemaVersion = types.SchemaVersion
		bz, err := json.Marshal(s)
		if err != nil {
			iterator.Close()
			return fmt.Errorf("failed to encode session %d: %w", s.ID, err)
		}
		updates = append(updates, entry{key: append([]byte{}, iterator.Key()...), bz: bz})
	}
	iterator.Close()

	for _, u := range updates {
		store.Set(u.key, u.bz)
	}
	ctx.Logger().Info("Session records migrated", "count", len(updates))
	return nil
}

func loadAll[T any](store storetypes.KVStore, prefix []byte) ([]T, error) {
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var out []T
	for ; iterator.Valid(); iterator.Next() {
		var rec T
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record at %x: %w", iterator.Key(), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func modelPriceKey(host, modelID string, class types.AssetClass) []byte {
	key := append([]byte{}, ModelPriceKeyPrefix...)
	key = append(key, host...)
	key = append(key, keySeparator)
	key = append(key, modelID...)
	key = append(key, keySeparator)
	return append(key, class...)
}
