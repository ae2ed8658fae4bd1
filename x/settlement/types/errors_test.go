package types_test

import (
	"errors"
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		err  error
		want types.Category
	}{
		{nil, types.CategoryNone},
		{types.ErrNotSessionHost, types.CategoryAuthorization},
		{errorsmod.Wrap(types.ErrReentrantCall, "nested"), types.CategoryAuthorization},
		{types.ErrPriceBelowMinimum.Wrapf("price %d", 1), types.CategoryValidation},
		{types.ErrSessionNotActive, types.CategoryState},
		{fmt.Errorf("outer: %w", types.ErrProofReplayed), types.CategoryReplay},
		{types.ErrSlashExceedsCap, types.CategoryEconomic},
		{errors.New("disk on fire"), types.CategoryInternal},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, types.CategoryOf(tc.err), "%v", tc.err)
	}
}
