package types

const (
	// ModuleName defines the module name
	ModuleName = "settlement"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey is the message route for settlement
	RouterKey = ModuleName

	// ConsensusVersion is the current schema version of the module state.
	ConsensusVersion = 2

	// SchemaVersion is stamped on every persisted record.
	SchemaVersion uint32 = 2
)

// PricePrecision is the fixed-point scale applied to all per-unit prices.
const PricePrecision = 1000

// BasisPoints is the denominator for fee and slash fractions.
const BasisPoints = 10000

// MaxAmountBitLen bounds every amount accepted from a caller. Unit counts are
// uint64, so cost products stay far below the 256-bit limit of math.Int.
const MaxAmountBitLen = 128
