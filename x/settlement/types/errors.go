package types

import (
	"errors"

	sdkerrors "cosmossdk.io/errors"
)

// Settlement module sentinel errors. Codes are grouped by category so callers can map any
// wrapped error back to its class with CategoryOf.

var (
	// Authorization errors (2-19)
	ErrUnauthorized          = sdkerrors.Register(ModuleName, 2, "unauthorized operation")
	ErrNotSessionHost        = sdkerrors.Register(ModuleName, 3, "caller is not the session host")
	ErrNotSessionParty       = sdkerrors.Register(ModuleName, 4, "caller may not terminate this session")
	ErrDelegateNotAuthorized = sdkerrors.Register(ModuleName, 5, "delegate not authorized by payer")
	ErrNotSlashingAuthority  = sdkerrors.Register(ModuleName, 6, "caller is not the slashing authority")
	ErrInvalidAuthority      = sdkerrors.Register(ModuleName, 7, "invalid authority")
	ErrReentrantCall         = sdkerrors.Register(ModuleName, 8, "reentrant call rejected")

	// Validation errors (20-49)
	ErrInvalidAddress       = sdkerrors.Register(ModuleName, 20, "invalid address")
	ErrInvalidPrice         = sdkerrors.Register(ModuleName, 21, "price out of range")
	ErrPriceBelowMinimum    = sdkerrors.Register(ModuleName, 22, "price below host minimum")
	ErrPriceNotSet          = sdkerrors.Register(ModuleName, 23, "host has not published a price")
	ErrDepositTooLow        = sdkerrors.Register(ModuleName, 24, "deposit below minimum")
	ErrInvalidDuration      = sdkerrors.Register(ModuleName, 25, "session duration out of bounds")
	ErrInvalidProofInterval = sdkerrors.Register(ModuleName, 26, "proof interval out of bounds")
	ErrModelNotApproved     = sdkerrors.Register(ModuleName, 27, "model not approved")
	ErrModelNotSupported    = sdkerrors.Register(ModuleName, 28, "model not supported by host")
	ErrNoModels             = sdkerrors.Register(ModuleName, 29, "at least one model is required")
	ErrUnknownAsset         = sdkerrors.Register(ModuleName, 30, "unsupported payment asset")
	ErrInvalidContentRef    = sdkerrors.Register(ModuleName, 31, "invalid content reference")
	ErrUnitsBelowMinimum    = sdkerrors.Register(ModuleName, 32, "claimed units below per-proof minimum")
	ErrInvalidProofHash     = sdkerrors.Register(ModuleName, 33, "invalid proof hash")
	ErrProofRejected        = sdkerrors.Register(ModuleName, 34, "proof rejected by verifier")
	ErrInvalidMetadata      = sdkerrors.Register(ModuleName, 35, "invalid host metadata")
	ErrInvalidEndpoint      = sdkerrors.Register(ModuleName, 36, "invalid host endpoint")
	ErrSelfDelegation       = sdkerrors.Register(ModuleName, 37, "payer cannot delegate to itself")
	ErrInvalidAmount        = sdkerrors.Register(ModuleName, 38, "invalid amount")
	ErrInvalidParams        = sdkerrors.Register(ModuleName, 39, "invalid params")
	ErrInvalidEvidence      = sdkerrors.Register(ModuleName, 40, "slash evidence and reason are required")
	ErrDuplicateModel       = sdkerrors.Register(ModuleName, 41, "duplicate model id")
	ErrTooManyModels        = sdkerrors.Register(ModuleName, 42, "too many models")
	ErrInvalidGenesis       = sdkerrors.Register(ModuleName, 43, "invalid genesis state")
	ErrInvalidAssetClass    = sdkerrors.Register(ModuleName, 44, "invalid asset class")

	// State errors (50-69)
	ErrHostNotFound          = sdkerrors.Register(ModuleName, 50, "host not found")
	ErrHostNotActive         = sdkerrors.Register(ModuleName, 51, "host not active")
	ErrHostAlreadyRegistered = sdkerrors.Register(ModuleName, 52, "host already registered")
	ErrSessionNotFound       = sdkerrors.Register(ModuleName, 53, "session not found")
	ErrSessionNotActive      = sdkerrors.Register(ModuleName, 54, "session is not active")
	ErrDisputeWindowOpen     = sdkerrors.Register(ModuleName, 55, "dispute window has not elapsed")
	ErrTimeoutNotReached     = sdkerrors.Register(ModuleName, 56, "session timeout threshold not reached")
	ErrNoEarnings            = sdkerrors.Register(ModuleName, 57, "no earnings to withdraw")
	ErrRecordCorrupted       = sdkerrors.Register(ModuleName, 58, "stored record corrupted")
	ErrStorageFailed         = sdkerrors.Register(ModuleName, 59, "storage operation failed")
	ErrTransferFailed        = sdkerrors.Register(ModuleName, 60, "token transfer failed")

	// Replay errors (70-79)
	ErrProofReplayed = sdkerrors.Register(ModuleName, 70, "proof hash already consumed")

	// Economic errors (80-99)
	ErrSlashExceedsCap      = sdkerrors.Register(ModuleName, 80, "slash exceeds maximum fraction of stake")
	ErrSlashCooldown        = sdkerrors.Register(ModuleName, 81, "slash cooldown active")
	ErrInsufficientStake    = sdkerrors.Register(ModuleName, 82, "insufficient stake")
	ErrInsufficientTreasury = sdkerrors.Register(ModuleName, 83, "insufficient treasury balance")
	ErrArithmeticOverflow   = sdkerrors.Register(ModuleName, 84, "arithmetic overflow")
	ErrInsufficientFunds    = sdkerrors.Register(ModuleName, 85, "insufficient funds")

	// Internal errors (100+)
	ErrPanicRecovered = sdkerrors.Register(ModuleName, 100, "operation panicked")
)

// Category classifies errors into the five failure classes exposed to callers.
type Category string

const (
	CategoryNone          Category = ""
	CategoryAuthorization Category = "authorization"
	CategoryValidation    Category = "validation"
	CategoryState         Category = "state"
	CategoryReplay        Category = "replay"
	CategoryEconomic      Category = "economic"
	CategoryInternal      Category = "internal"
)

// CategoryOf returns the failure class of err based on the registered error it wraps.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNone
	}
	var registered *sdkerrors.Error
	if !errors.As(err, &registered) || registered.Codespace() != ModuleName {
		return CategoryInternal
	}
	code := registered.ABCICode()
	switch {
	case code < 20:
		return CategoryAuthorization
	case code < 50:
		return CategoryValidation
	case code < 70:
		return CategoryState
	case code < 80:
		return CategoryReplay
	case code < 100:
		return CategoryEconomic
	default:
		return CategoryInternal
	}
}
