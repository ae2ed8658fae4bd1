package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccountKeeper defines the expected account keeper used by the settlement module
type AccountKeeper interface {
	GetModuleAddress(moduleName string) sdk.AccAddress
	GetAccount(ctx context.Context, addr sdk.AccAddress) sdk.AccountI
}

// BankKeeper is the token ledger. SendCoinsFromAccountToModule is the escrow
// (transferFrom) leg and SendCoinsFromModuleToAccount the payout (transfer) leg.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SpendableCoins(ctx context.Context, addr sdk.AccAddress) sdk.Coins
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// ModelWhitelist answers whether a model id has been approved by governance.
type ModelWhitelist interface {
	IsApproved(ctx context.Context, modelID string) bool
}

// ProofClaim is what a host submits for verification.
type ProofClaim struct {
	SessionID uint64
	Host      string
	Units     uint64
	ProofHash []byte
	ProofRef  string
}

// ProofVerifier checks an opaque proof and returns the key that identifies it
// for replay protection. Two claims for the same work must yield the same key.
type ProofVerifier interface {
	Verify(ctx context.Context, claim ProofClaim) (replayKey []byte, err error)
}
