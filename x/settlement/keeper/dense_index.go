package keeper

import (
	storetypes "cosmossdk.io/store/types"
)

// denseIndex is an enumerable set stored as a dense array of members plus a
// member-to-position map. Removal swaps the last member into the freed slot.
type denseIndex struct {
	countKey  []byte
	atPrefix  []byte
	posPrefix []byte
}

func activeHostIndex() denseIndex {
	return denseIndex{
		countKey:  ActiveHostCountKey,
		atPrefix:  ActiveHostAtPrefix,
		posPrefix: ActiveHostPosPrefix,
	}
}

func modelHostIndex(modelID string) denseIndex {
	return denseIndex{
		countKey:  joinKey(ModelHostCountPrefix, []byte(modelID)),
		atPrefix:  append(joinKey(ModelHostAtPrefix, []byte(modelID)), keySeparator),
		posPrefix: append(joinKey(ModelHostPosPrefix, []byte(modelID)), keySeparator),
	}
}

func (d denseIndex) atKey(i uint64) []byte {
	return append(append([]byte{}, d.atPrefix...), GetUint64Bytes(i)...)
}

func (d denseIndex) posKey(member string) []byte {
	return append(append([]byte{}, d.posPrefix...), member...)
}

func (d denseIndex) len(store storetypes.KVStore) uint64 {
	return getCounter(store, d.countKey, 0)
}

func (d denseIndex) contains(store storetypes.KVStore, member string) bool {
	return store.Has(d.posKey(member))
}

// add appends member; it is a no-op when member is already present.
func (d denseIndex) add(store storetypes.KVStore, member string) bool {
	if d.contains(store, member) {
		return false
	}
	n := d.len(store)
	store.Set(d.atKey(n), []byte(member))
	store.Set(d.posKey(member), GetUint64Bytes(n))
	setCounter(store, d.countKey, n+1)
	return true
}

// remove deletes member with swap-and-pop; it is a no-op when member is absent.
func (d denseIndex) remove(store storetypes.KVStore, member string) bool {
	posBz := store.Get(d.posKey(member))
	if posBz == nil {
		return false
	}
	pos := GetUint64FromBytes(posBz)
	last := d.len(store) - 1

	if pos != last {
		moved := store.Get(d.atKey(last))
		store.Set(d.atKey(pos), moved)
		store.Set(d.posKey(string(moved)), GetUint64Bytes(pos))
	}
	store.Delete(d.atKey(last))
	store.Delete(d.posKey(member))
	if last == 0 {
		store.Delete(d.countKey)
	} else {
		setCounter(store, d.countKey, last)
	}
	return true
}

// members returns the dense array in position order.
func (d denseIndex) members(store storetypes.KVStore) []string {
	n := d.len(store)
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		if bz := store.Get(d.atKey(i)); bz != nil {
			out = append(out, string(bz))
		}
	}
	return out
}

// page returns up to limit members starting at offset.
func (d denseIndex) page(store storetypes.KVStore, offset, limit uint64) []string {
	n := d.len(store)
	if offset >= n {
		return []string{}
	}
	end := n
	if limit > 0 && limit < n-offset {
		end = offset + limit
	}
	out := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		if bz := store.Get(d.atKey(i)); bz != nil {
			out = append(out, string(bz))
		}
	}
	return out
}

// clear drops every entry, used when rebuilding during migrations.
func (d denseIndex) clear(store storetypes.KVStore) {
	for _, m := range d.members(store) {
		store.Delete(d.posKey(m))
	}
	n := d.len(store)
	for i := uint64(0); i < n; i++ {
		store.Delete(d.atKey(i))
	}
	store.Delete(d.countKey)
}
