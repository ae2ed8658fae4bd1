package keeper

import (
	"encoding/json"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// getRecord decodes the JSON record at key. found is false when the key is absent.
func getRecord[T any](store storetypes.KVStore, key []byte) (record T, found bool, err error) {
	bz := store.Get(key)
	if bz == nil {
		return record, false, nil
	}
	if err := json.Unmarshal(bz, &record); err != nil {
		return record, true, types.ErrRecordCorrupted.Wrapf("key %x: %v", key, err)
	}
	return record, true, nil
}

// setRecord JSON-encodes record under key.
func setRecord(store storetypes.KVStore, key []byte, record any) error {
	bz, err := json.Marshal(record)
	if err != nil {
		return types.ErrStorageFailed.Wrapf("marshal %T: %v", record, err)
	}
	store.Set(key, bz)
	return nil
}

// iterateRecords walks every JSON record under prefix until cb returns true.
func iterateRecords[T any](store storetypes.KVStore, prefix []byte, cb func(key []byte, record T) (stop bool, err error)) error {
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var record T
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			return types.ErrRecordCorrupted.Wrapf("key %x: %v", iterator.Key(), err)
		}
		stop, err := cb(iterator.Key(), record)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func getInt(store storetypes.KVStore, key []byte) (math.Int, error) {
	bz := store.Get(key)
	if bz == nil {
		return math.ZeroInt(), nil
	}
	var v math.Int
	if err := v.Unmarshal(bz); err != nil {
		return math.ZeroInt(), types.ErrRecordCorrupted.Wrapf("key %x: %v", key, err)
	}
	return v, nil
}

func setInt(store storetypes.KVStore, key []byte, v math.Int) error {
	if v.IsZero() {
		store.Delete(key)
		return nil
	}
	bz, err := v.Marshal()
	if err != nil {
		return types.ErrStorageFailed.Wrapf("marshal amount: %v", err)
	}
	store.Set(key, bz)
	return nil
}

func getCounter(store storetypes.KVStore, key []byte, initial uint64) uint64 {
	bz := store.Get(key)
	if bz == nil {
		return initial
	}
	return GetUint64FromBytes(bz)
}

func setCounter(store storetypes.KVStore, key []byte, v uint64) {
	store.Set(key, GetUint64Bytes(v))
}
