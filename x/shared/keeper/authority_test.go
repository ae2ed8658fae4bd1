package keeper_test

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/stretchr/testify/require"

	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
)

func TestValidateAuthority(t *testing.T) {
	require.NoError(t, sharedkeeper.ValidateAuthority("gov", "gov"))

	err := sharedkeeper.ValidateAuthority("gov", "mallory")
	require.ErrorIs(t, err, govtypes.ErrInvalidSigner)
	require.Contains(t, err.Error(), "expected gov, got mallory")
}

func TestValidateAuthorityOneOf(t *testing.T) {
	require.NoError(t, sharedkeeper.ValidateAuthorityOneOf("slasher", "gov", "slasher"))
	require.ErrorIs(t, sharedkeeper.ValidateAuthorityOneOf("", "gov", ""), govtypes.ErrInvalidSigner)
	require.ErrorIs(t, sharedkeeper.ValidateAuthorityOneOf("mallory", "gov"), govtypes.ErrInvalidSigner)
}

func TestValidateAuthorityAddress(t *testing.T) {
	addr := sdk.AccAddress(make([]byte, 20)).String()
	require.NoError(t, sharedkeeper.ValidateAuthorityAddress(addr))
	require.ErrorIs(t, sharedkeeper.ValidateAuthorityAddress("not-an-address"), govtypes.ErrInvalidSigner)
}
