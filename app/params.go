package app

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// AccountAddressPrefix is the bech32 prefix of every host, depositor and
	// delegate address.
	AccountAddressPrefix = "paw"

	// NativeDenom is the native token hosts stake in.
	NativeDenom = "upaw"

	// StableDenom is the default stablecoin sessions can be paid in.
	StableDenom = "uusdc"

	// DefaultChainID is used when no chain id is configured.
	DefaultChainID = "settlement-local"
)

// SetConfig installs the account address prefix and seals the SDK config.
// The node has no validators, so only account prefixes are set.
func SetConfig() {
	config := sdk.GetConfig()
	config.SetBech32PrefixForAccount(AccountAddressPrefix, AccountAddressPrefix+sdk.PrefixPublic)
	config.Seal()
}
