package app

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
)

// Severity classifies a rejected transaction for operators. Caller mistakes are
// routine; failures that are not registered errors point at the node itself.
type Severity int

const (
	// SeverityLow covers rejections caused by the caller's input or identity.
	SeverityLow Severity = iota

	// SeverityMedium covers rejections caused by state or balances, which
	// may reflect client races.
	SeverityMedium

	// SeverityHigh covers errors without a registered code, usually storage
	// or encoding failures.
	SeverityHigh

	// SeverityCritical is a broken invariant or a recovered panic.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SeverityOf classifies why a transaction was rejected.
func SeverityOf(err error) Severity {
	if errors.Is(err, ErrInvariantBroken) || errors.Is(err, ErrPanicRecovered) ||
		errors.Is(err, settlementtypes.ErrPanicRecovered) {
		return SeverityCritical
	}
	var registered *errorsmod.Error
	if !errors.As(err, &registered) {
		return SeverityHigh
	}
	if registered.Codespace() != settlementtypes.ModuleName {
		return SeverityLow
	}
	switch settlementtypes.CategoryOf(err) {
	case settlementtypes.CategoryState, settlementtypes.CategoryEconomic:
		return SeverityMedium
	case settlementtypes.CategoryInternal:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

// logRejection logs a rejected transaction at a level matching its severity.
func logRejection(logger log.Logger, op string, height int64, err error) Severity {
	severity := SeverityOf(err)
	keyvals := []interface{}{
		"op", op,
		"height", height,
		"severity", severity.String(),
		"category", string(settlementtypes.CategoryOf(err)),
		"error", err.Error(),
	}
	switch severity {
	case SeverityCritical:
		logger.Error("CRITICAL transaction rejection", keyvals...)
	case SeverityHigh:
		logger.Error("transaction failed", keyvals...)
	case SeverityMedium:
		logger.Info("transaction rejected", keyvals...)
	default:
		logger.Debug("transaction rejected", keyvals...)
	}
	return severity
}
