// Package replay provides a store-backed set of consumed identifiers used to reject
// any proof, packet or claim that has already been accepted once.
package replay

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// MaxIDLength bounds the size of a replay identifier in bytes
	MaxIDLength = 128

	// DefaultPrefix is the store prefix used when none is supplied
	DefaultPrefix = "replay/"
)

// ErrorProvider allows modules to provide their own error types while using shared replay logic.
// Each module implements this interface to wrap errors with their module-specific error types.
type ErrorProvider interface {
	// ReplayError returns an error for an identifier that was already consumed
	ReplayError(msg string) error
	// InvalidIDError returns an error for a malformed identifier
	InvalidIDError(msg string) error
}

// Record is the persisted marker of a consumed identifier.
type Record struct {
	ID       string    `json:"id"`
	Consumer string    `json:"consumer"`
	Height   int64     `json:"height"`
	UsedAt   time.Time `json:"used_at"`
}

// Guard is a global consumed-identifier set. Identifiers never expire: once marked
// they stay marked for the lifetime of the chain.
type Guard struct {
	storeKey      storetypes.StoreKey
	prefix        []byte
	errorProvider ErrorProvider
}

// NewGuard creates a replay guard persisting under prefix in the module store.
// storeKey: the module's store key for persistence
// prefix: key namespace inside the store
// errorProvider: module-specific error type provider
func NewGuard(storeKey storetypes.StoreKey, prefix []byte, errorProvider ErrorProvider) *Guard {
	if len(prefix) == 0 {
		prefix = []byte(DefaultPrefix)
	}
	return &Guard{
		storeKey:      storeKey,
		prefix:        prefix,
		errorProvider: errorProvider,
	}
}

func (g *Guard) key(id []byte) []byte {
	key := make([]byte, 0, len(g.prefix)+len(id))
	key = append(key, g.prefix...)
	return append(key, id...)
}

func (g *Guard) validate(id []byte) error {
	if len(id) == 0 {
		return g.errorProvider.InvalidIDError("replay id cannot be empty")
	}
	if len(id) > MaxIDLength {
		return g.errorProvider.InvalidIDError(fmt.Sprintf("replay id exceeds %d bytes", MaxIDLength))
	}
	return nil
}

// IsUsed reports whether id has been consumed.
func (g *Guard) IsUsed(ctx sdk.Context, id []byte) bool {
	if len(id) == 0 {
		return false
	}
	return ctx.KVStore(g.storeKey).Has(g.key(id))
}

// MarkUsed atomically checks and consumes id. It fails if id was consumed before,
// in which case nothing is written.
func (g *Guard) MarkUsed(ctx sdk.Context, id []byte, consumer string) error {
	if err := g.validate(id); err != nil {
		return err
	}
	store := ctx.KVStore(g.storeKey)
	key := g.key(id)
	if bz := store.Get(key); bz != nil {
		var prev Record
		if err := json.Unmarshal(bz, &prev); err == nil {
			return g.errorProvider.ReplayError(fmt.Sprintf(
				"id %s already consumed by %s at height %d", hex.EncodeToString(id), prev.Consumer, prev.Height))
		}
		return g.errorProvider.ReplayError(fmt.Sprintf("id %s already consumed", hex.EncodeToString(id)))
	}

	bz, err := json.Marshal(Record{
		ID:       hex.EncodeToString(id),
		Consumer: consumer,
		Height:   ctx.BlockHeight(),
		UsedAt:   ctx.BlockTime().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal replay record: %w", err)
	}
	store.Set(key, bz)
	return nil
}

// TryMarkUsed is MarkUsed reporting success as a bool.
func (g *Guard) TryMarkUsed(ctx sdk.Context, id []byte, consumer string) bool {
	return g.MarkUsed(ctx, id, consumer) == nil
}

// Get returns the record for id if it was consumed.
func (g *Guard) Get(ctx sdk.Context, id []byte) (Record, bool) {
	bz := ctx.KVStore(g.storeKey).Get(g.key(id))
	if bz == nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(bz, &rec); err != nil {
		return Record{ID: hex.EncodeToString(id)}, true
	}
	return rec, true
}

// Import restores a consumed record, used by genesis.
func (g *Guard) Import(ctx sdk.Context, rec Record) error {
	id, err := hex.DecodeString(rec.ID)
	if err != nil {
		return g.errorProvider.InvalidIDError(fmt.Sprintf("replay id %q is not hex", rec.ID))
	}
	if err := g.validate(id); err != nil {
		return err
	}
	bz, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal replay record: %w", err)
	}
	ctx.KVStore(g.storeKey).Set(g.key(id), bz)
	return nil
}

// Iterate walks consumed records in key order until cb returns true.
func (g *Guard) Iterate(ctx sdk.Context, cb func(Record) (stop bool)) {
	iterator := storetypes.KVStorePrefixIterator(ctx.KVStore(g.storeKey), g.prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var rec Record
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			rec = Record{ID: hex.EncodeToString(iterator.Key()[len(g.prefix):])}
		}
		if cb(rec) {
			return
		}
	}
}

// Count returns the number of consumed identifiers.
func (g *Guard) Count(ctx sdk.Context) uint64 {
	var n uint64
	g.Iterate(ctx, func(Record) bool {
		n++
		return false
	})
	return n
}
