package app

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace of the serialized executor.
const Codespace = "app"

var (
	ErrGenesis          = errorsmod.Register(Codespace, 2, "invalid genesis")
	ErrAlreadyInitiated = errorsmod.Register(Codespace, 3, "chain already initialized")
	ErrNotInitiated     = errorsmod.Register(Codespace, 4, "chain not initialized")
	ErrFaucetDisabled   = errorsmod.Register(Codespace, 5, "faucet disabled")
	ErrFaucetLimit      = errorsmod.Register(Codespace, 6, "faucet request exceeds limit")
	ErrInvariantBroken  = errorsmod.Register(Codespace, 7, "invariant broken")
	ErrPanicRecovered   = errorsmod.Register(Codespace, 8, "transaction panicked")
)
