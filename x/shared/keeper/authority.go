// Package keeper provides shared keeper utilities used across settlement modules.
package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
)

// ValidateAuthority checks that the provided authority matches the expected authority.
// This is used for governance-only operations like parameter updates and model approval.
//
// Usage example:
//
//	if err := sharedkeeper.ValidateAuthority(k.authority, msg.Authority); err != nil {
//	    return nil, err
//	}
func ValidateAuthority(expected, actual string) error {
	if expected != actual {
		return govtypes.ErrInvalidSigner.Wrapf(
			"invalid authority; expected %s, got %s",
			expected,
			actual,
		)
	}
	return nil
}

// ValidateAuthorityOneOf accepts actual if it equals any non-empty expected address.
// Used where a delegated role (for example a slashing committee) may act alongside governance.
func ValidateAuthorityOneOf(actual string, expected ...string) error {
	for _, e := range expected {
		if e != "" && e == actual {
			return nil
		}
	}
	return govtypes.ErrInvalidSigner.Wrapf("%s is not an authorized signer", actual)
}

// ValidateAuthorityAddress checks that an authority string is a well-formed account address.
func ValidateAuthorityAddress(authority string) error {
	if _, err := sdk.AccAddressFromBech32(authority); err != nil {
		return govtypes.ErrInvalidSigner.Wrapf("invalid authority address %q: %v", authority, err)
	}
	return nil
}
