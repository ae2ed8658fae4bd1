package types

import (
	sdkerrors "cosmossdk.io/errors"
)

var (
	ErrInvalidModelID  = sdkerrors.Register(ModuleName, 2, "invalid model id")
	ErrModelNotFound   = sdkerrors.Register(ModuleName, 3, "model not found")
	ErrModelExists     = sdkerrors.Register(ModuleName, 4, "model already approved")
	ErrInvalidGenesis  = sdkerrors.Register(ModuleName, 5, "invalid genesis state")
	ErrRecordCorrupted = sdkerrors.Register(ModuleName, 6, "stored model record corrupted")
)
