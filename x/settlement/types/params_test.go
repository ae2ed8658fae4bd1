package types_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestDefaultParamsValid(t *testing.T) {
	p := types.DefaultParams()
	require.NoError(t, p.Validate())
	require.Equal(t, uint64(30), p.DisputeWindowSeconds)
	require.Equal(t, uint64(86400), p.SlashCooldownSeconds)
	require.Equal(t, uint64(2_592_000), p.MaxSessionDurationSeconds)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Params)
	}{
		{"same denoms", func(p *types.Params) { p.StableDenom = p.NativeDenom }},
		{"inverted native range", func(p *types.Params) { p.MinPriceNative = p.MaxPriceNative.AddRaw(1) }},
		{"zero stable min", func(p *types.Params) { p.MinPriceStable = math.ZeroInt() }},
		{"fee above 100%", func(p *types.Params) { p.ProtocolFeeBps = types.BasisPoints + 1 }},
		{"slash cap zero", func(p *types.Params) { p.MaxSlashBps = 0 }},
		{"floor above stake", func(p *types.Params) { p.MinStakeAfterSlash = p.MinHostStake.AddRaw(1) }},
		{"proof interval inverted", func(p *types.Params) { p.MinProofInterval = p.MaxProofInterval + 1 }},
		{"bad authority", func(p *types.Params) { p.SlashingAuthority = "nope" }},
		{"zero multiplier", func(p *types.Params) { p.TimeoutIntervalMultiplier = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := types.DefaultParams()
			tc.mutate(&p)
			require.ErrorIs(t, p.Validate(), types.ErrInvalidParams)
		})
	}
}

func TestAssetClassLookup(t *testing.T) {
	p := types.DefaultParams()

	class, err := p.AssetClassOf("upaw")
	require.NoError(t, err)
	require.Equal(t, types.AssetClassNative, class)

	class, err = p.AssetClassOf("uusdc")
	require.NoError(t, err)
	require.Equal(t, types.AssetClassStable, class)

	_, err = p.AssetClassOf("uatom")
	require.ErrorIs(t, err, types.ErrUnknownAsset)

	require.NoError(t, p.ValidatePrice(types.AssetClassNative, math.NewInt(227_273)))
	require.ErrorIs(t, p.ValidatePrice(types.AssetClassNative, math.NewInt(227_272)), types.ErrInvalidPrice)
	require.ErrorIs(t, p.ValidatePrice(types.AssetClassStable, math.NewInt(100_000_001)), types.ErrInvalidPrice)
	require.ErrorIs(t, p.ValidatePrice("gold", math.NewInt(1)), types.ErrInvalidAssetClass)
}
