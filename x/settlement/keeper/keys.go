package keeper

import (
	"encoding/binary"
	"strconv"

	"github.com/paw-chain/settlement/x/settlement/types"
)

var (
	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x01}

	// HostKeyPrefix is the prefix for host records
	HostKeyPrefix = []byte{0x02}

	// ModelPriceKeyPrefix is the prefix for the (host, model, class) price index
	ModelPriceKeyPrefix = []byte{0x03}

	// SessionKeyPrefix is the prefix for session records
	SessionKeyPrefix = []byte{0x04}

	// NextSessionIDKey is the key for the next session ID counter
	NextSessionIDKey = []byte{0x05}

	// SessionsByDepositorPrefix is the prefix for indexing sessions by depositor
	SessionsByDepositorPrefix = []byte{0x06}

	// SessionsByHostPrefix is the prefix for indexing sessions by host
	SessionsByHostPrefix = []byte{0x07}

	// ProofSubmissionPrefix is the prefix for the append-only proof log
	ProofSubmissionPrefix = []byte{0x08}

	// EarningsKeyPrefix is the prefix for (host, denom) earnings balances
	EarningsKeyPrefix = []byte{0x09}

	// DelegationKeyPrefix is the prefix for (payer, delegate) authorizations
	DelegationKeyPrefix = []byte{0x0A}

	// TreasuryKeyPrefix is the prefix for per-denom treasury accumulators
	TreasuryKeyPrefix = []byte{0x0B}

	// SlashRecordKeyPrefix is the prefix for slash records by host
	SlashRecordKeyPrefix = []byte{0x0C}

	// AuditRecordKeyPrefix is the prefix for sequence-keyed audit records
	AuditRecordKeyPrefix = []byte{0x0D}

	// NextAuditSeqKey is the key for the next audit sequence number
	NextAuditSeqKey = []byte{0x0E}

	// NextSlashSeqKey is the key for the next slash record sequence number
	NextSlashSeqKey = []byte{0x0F}

	// ActiveHostCountKey holds the length of the dense active-host array
	ActiveHostCountKey = []byte{0x10}

	// ActiveHostAtPrefix maps a dense position to a host address
	ActiveHostAtPrefix = []byte{0x11}

	// ActiveHostPosPrefix maps a host address to its dense position
	ActiveHostPosPrefix = []byte{0x12}

	// ModelHostCountPrefix holds the length of each model's dense host array
	ModelHostCountPrefix = []byte{0x13}

	// ModelHostAtPrefix maps (model, position) to a host address
	ModelHostAtPrefix = []byte{0x14}

	// ModelHostPosPrefix maps (model, host) to its dense position
	ModelHostPosPrefix = []byte{0x15}

	// ProofReplayPrefix is the namespace of the global consumed-proof set
	ProofReplayPrefix = []byte{0x16}

	// SchemaVersionKey records the schema version the store was last migrated to
	SchemaVersionKey = []byte{0x17}
)

const keySeparator = byte(0x00)

// GetUint64Bytes encodes a uint64 big-endian so keys sort numerically
func GetUint64Bytes(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

// GetUint64FromBytes decodes a big-endian uint64, returning 0 for malformed input
func GetUint64FromBytes(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func joinKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	key := make([]byte, 0, size)
	key = append(key, prefix...)
	for i, p := range parts {
		if i > 0 {
			key = append(key, keySeparator)
		}
		key = append(key, p...)
	}
	return key
}

// HostKey returns the store key for a host record
func HostKey(host string) []byte {
	return joinKey(HostKeyPrefix, []byte(host))
}

// ModelPriceKey returns the store key for a (host, model, class) price
func ModelPriceKey(host, modelID string, class types.AssetClass) []byte {
	return joinKey(ModelPriceKeyPrefix, []byte(host), []byte(modelID), []byte(class))
}

// ModelPriceHostPrefix returns the prefix covering all prices of a host
func ModelPriceHostPrefix(host string) []byte {
	return append(joinKey(ModelPriceKeyPrefix, []byte(host)), keySeparator)
}

// SessionKey returns the store key for a session
func SessionKey(id uint64) []byte {
	return joinKey(SessionKeyPrefix, GetUint64Bytes(id))
}

// SessionByDepositorKey returns the depositor index key for a session
func SessionByDepositorKey(depositor string, id uint64) []byte {
	return joinKey(SessionsByDepositorPrefix, []byte(depositor), GetUint64Bytes(id))
}

// SessionByDepositorPrefix returns the prefix covering a depositor's sessions
func SessionByDepositorPrefix(depositor string) []byte {
	return append(joinKey(SessionsByDepositorPrefix, []byte(depositor)), keySeparator)
}

// SessionByHostKey returns the host index key for a session
func SessionByHostKey(host string, id uint64) []byte {
	return joinKey(SessionsByHostPrefix, []byte(host), GetUint64Bytes(id))
}

// SessionByHostPrefix returns the prefix covering a host's sessions
func SessionByHostPrefix(host string) []byte {
	return append(joinKey(SessionsByHostPrefix, []byte(host)), keySeparator)
}

// ProofSubmissionKey returns the key of the index-th proof of a session
func ProofSubmissionKey(sessionID, index uint64) []byte {
	return joinKey(ProofSubmissionPrefix, GetUint64Bytes(sessionID), GetUint64Bytes(index))
}

// ProofSubmissionSessionPrefix returns the prefix covering a session's proofs
func ProofSubmissionSessionPrefix(sessionID uint64) []byte {
	return append(joinKey(ProofSubmissionPrefix, GetUint64Bytes(sessionID)), keySeparator)
}

// EarningsKey returns the store key for a (host, denom) balance
func EarningsKey(host, denom string) []byte {
	return joinKey(EarningsKeyPrefix, []byte(host), []byte(denom))
}

// EarningsHostPrefix returns the prefix covering a host's balances
func EarningsHostPrefix(host string) []byte {
	return append(joinKey(EarningsKeyPrefix, []byte(host)), keySeparator)
}

// DelegationKey returns the store key for a (payer, delegate) authorization
func DelegationKey(payer, delegate string) []byte {
	return joinKey(DelegationKeyPrefix, []byte(payer), []byte(delegate))
}

// TreasuryKey returns the store key for a denom's accumulator
func TreasuryKey(denom string) []byte {
	return joinKey(TreasuryKeyPrefix, []byte(denom))
}

// SlashRecordKey returns the store key for a slash record
func SlashRecordKey(host string, seq uint64) []byte {
	return joinKey(SlashRecordKeyPrefix, []byte(host), GetUint64Bytes(seq))
}

// SlashRecordHostPrefix returns the prefix covering a host's slash records
func SlashRecordHostPrefix(host string) []byte {
	return append(joinKey(SlashRecordKeyPrefix, []byte(host)), keySeparator)
}

// AuditRecordKey returns the store key for an audit record
func AuditRecordKey(seq uint64) []byte {
	return joinKey(AuditRecordKeyPrefix, GetUint64Bytes(seq))
}

// splitPair splits "a<sep>b" into its two parts.
func splitPair(bz []byte) (string, string, bool) {
	for i, b := range bz {
		if b == keySeparator {
			return string(bz[:i]), string(bz[i+1:]), true
		}
	}
	return "", "", false
}

func uintString(n uint64) string {
	return strconv.FormatUint(n, 10)
}
