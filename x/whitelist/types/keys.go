package types

const (
	// ModuleName defines the module name
	ModuleName = "whitelist"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// MaxModelIDLength bounds approved model identifiers
	MaxModelIDLength = 128
)

var (
	// ModelKeyPrefix is the prefix for approved model records
	ModelKeyPrefix = []byte{0x01}
)

// ModelKey returns the store key for an approved model
func ModelKey(modelID string) []byte {
	return append(append([]byte{}, ModelKeyPrefix...), []byte(modelID)...)
}
