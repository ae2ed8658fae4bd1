package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	v2 "github.com/paw-chain/settlement/x/settlement/migrations/v2"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// Migrator handles in-place store migrations for the settlement module.
type Migrator struct {
	keeper Keeper
}

// NewMigrator returns a new Migrator instance for the settlement module.
func NewMigrator(keeper Keeper) Migrator {
	return Migrator{keeper: keeper}
}

// Migrate1to2 migrates the settlement module state from consensus version 1 to 2.
// This migration performs:
// - Schema version backfill on host and session records
// - Per-model price seeding from host-level prices
// - Dense host index rebuild
//
// This migration is idempotent and can be safely run multiple times.
func (m Migrator) Migrate1to2(ctx sdk.Context) error {
	ctx.Logger().Info("Executing settlement module migration from v1 to v2")
	if err := v2.Migrate(ctx, m.keeper.storeKey); err != nil {
		return err
	}
	if err := m.keeper.rebuildHostIndexes(ctx); err != nil {
		return fmt.Errorf("failed to rebuild host indexes: %w", err)
	}
	setCounter(m.keeper.getStore(ctx), SchemaVersionKey, uint64(types.SchemaVersion))
	return nil
}

// StoredSchemaVersion returns the schema version the store was last written at,
// or 1 for stores that predate version tracking.
func (k Keeper) StoredSchemaVersion(ctx sdk.Context) uint64 {
	return getCounter(k.getStore(ctx), SchemaVersionKey, 1)
}
