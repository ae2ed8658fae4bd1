package keeper_test

import (
	"strings"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	testkeeper "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestRegisterHost(t *testing.T) {
	env := setupEnv(t)
	before := env.Balance(env.host, nativeDenom)

	env.registerHost(t, env.host, modelLlama, modelMixtral)

	h, err := env.Keeper.GetHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.True(t, h.Active)
	require.Equal(t, math.NewInt(1_000_000), h.Stake)
	require.Equal(t, []string{modelLlama, modelMixtral}, h.SupportedModels)
	require.True(t, env.Balance(env.host, nativeDenom).Equal(before.SubRaw(1_000_000)))

	for _, model := range []string{modelLlama, modelMixtral} {
		price, err := env.Keeper.GetModelPrice(env.Ctx, env.host, model, types.AssetClassStable)
		require.NoError(t, err)
		require.Equal(t, hostMinStable, price)
		price, err = env.Keeper.GetModelPrice(env.Ctx, env.host, model, types.AssetClassNative)
		require.NoError(t, err)
		require.Equal(t, hostMinNative, price)
	}

	hosts, total, err := env.Keeper.ListActiveHosts(env.Ctx, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	require.Equal(t, env.host.String(), hosts[0].Address)

	hosts, total, err = env.Keeper.ListHostsForModel(env.Ctx, modelMixtral, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	require.Len(t, hosts, 1)
	env.requireSolvent(t)
}

func TestRegisterHost_Rejections(t *testing.T) {
	env := setupWithHost(t)

	err := env.Keeper.RegisterHost(env.Ctx, env.host, "", "", []string{modelLlama}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrHostAlreadyRegistered)

	other := testkeeper.TestAddr("other-host")
	env.Fund(t, other, sdk.NewCoins(sdk.NewCoin(nativeDenom, startingFunds)))

	err = env.Keeper.RegisterHost(env.Ctx, other, "", "", []string{"unlisted-model"}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrModelNotApproved)

	err = env.Keeper.RegisterHost(env.Ctx, other, "", "", nil, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrNoModels)

	err = env.Keeper.RegisterHost(env.Ctx, other, "", "", []string{modelLlama, modelLlama}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrDuplicateModel)

	err = env.Keeper.RegisterHost(env.Ctx, other, "", "", []string{modelLlama}, math.NewInt(227_272), hostMinStable)
	require.ErrorIs(t, err, types.ErrInvalidPrice)

	err = env.Keeper.RegisterHost(env.Ctx, other, strings.Repeat("m", 4097), "", []string{modelLlama}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrInvalidMetadata)

	err = env.Keeper.RegisterHost(env.Ctx, other, "", "https://host example", []string{modelLlama}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrInvalidEndpoint)

	broke := testkeeper.TestAddr("broke-host")
	err = env.Keeper.RegisterHost(env.Ctx, broke, "", "", []string{modelLlama}, hostMinNative, hostMinStable)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)

	_, total, err := env.Keeper.ListActiveHosts(env.Ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
}

func TestHostMutationsRequireActiveHost(t *testing.T) {
	env := setupWithHost(t)

	require.ErrorIs(t, env.Keeper.UpdateMetadata(env.Ctx, env.stranger, "x"), types.ErrHostNotFound)
	require.ErrorIs(t, env.Keeper.UpdateEndpoint(env.Ctx, env.stranger, "x"), types.ErrHostNotFound)
	require.ErrorIs(t, env.Keeper.UpdatePricing(env.Ctx, env.stranger, types.AssetClassStable, hostMinStable), types.ErrHostNotFound)
	require.ErrorIs(t, env.Keeper.AddStake(env.Ctx, env.stranger, math.NewInt(1)), types.ErrHostNotFound)
	_, err := env.Keeper.UnregisterHost(env.Ctx, env.stranger)
	require.ErrorIs(t, err, types.ErrHostNotFound)

	require.NoError(t, env.Keeper.UpdateMetadata(env.Ctx, env.host, "gpu=h100"))
	require.NoError(t, env.Keeper.UpdateEndpoint(env.Ctx, env.host, "https://new.example"))
	h, err := env.Keeper.GetHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.Equal(t, "gpu=h100", h.Metadata)
	require.Equal(t, "https://new.example", h.Endpoint)
}

func TestUpdateSupportedModels(t *testing.T) {
	env := setupWithHost(t)
	require.NoError(t, env.Keeper.SetModelPricing(env.Ctx, env.host, modelLlama, types.AssetClassStable, math.NewInt(7000)))

	require.NoError(t, env.Keeper.UpdateSupportedModels(env.Ctx, env.host, []string{modelLlama, modelMixtral}))
	price, err := env.Keeper.GetModelPrice(env.Ctx, env.host, modelMixtral, types.AssetClassStable)
	require.NoError(t, err)
	require.Equal(t, hostMinStable, price)
	// existing overrides survive
	price, err = env.Keeper.GetModelPrice(env.Ctx, env.host, modelLlama, types.AssetClassStable)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(7000), price)

	require.NoError(t, env.Keeper.UpdateSupportedModels(env.Ctx, env.host, []string{modelMixtral}))
	_, err = env.Keeper.GetModelPrice(env.Ctx, env.host, modelLlama, types.AssetClassStable)
	require.ErrorIs(t, err, types.ErrPriceNotSet)
	_, total, err := env.Keeper.ListHostsForModel(env.Ctx, modelLlama, 0, 0)
	require.NoError(t, err)
	require.Zero(t, total)

	_, err = env.Keeper.CreateSession(env.Ctx, env.depositor, env.terms())
	require.ErrorIs(t, err, types.ErrModelNotSupported)
}

func TestUpdatePricing_LeavesModelPricesAlone(t *testing.T) {
	env := setupWithHost(t)
	raised := math.NewInt(3000)
	require.NoError(t, env.Keeper.UpdatePricing(env.Ctx, env.host, types.AssetClassStable, raised))

	h, err := env.Keeper.GetHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.True(t, h.MinPriceStable.Equal(raised))

	// the llama price was seeded at registration and keeps the old minimum
	price, err := env.Keeper.GetModelPrice(env.Ctx, env.host, modelLlama, types.AssetClassStable)
	require.NoError(t, err)
	require.True(t, price.Equal(hostMinStable))
	_, err = env.Keeper.CreateSession(env.Ctx, env.depositor, env.terms())
	require.NoError(t, err)

	// model-less sessions use the host-level price
	terms := env.terms()
	terms.ModelID = ""
	_, err = env.Keeper.CreateSession(env.Ctx, env.depositor, terms)
	require.ErrorIs(t, err, types.ErrPriceBelowMinimum)
	terms.PricePerUnit = raised
	_, err = env.Keeper.CreateSession(env.Ctx, env.depositor, terms)
	require.NoError(t, err)

	// newly added models are seeded from the raised price
	require.NoError(t, env.Keeper.UpdateSupportedModels(env.Ctx, env.host, []string{modelLlama, modelMixtral}))
	price, err = env.Keeper.GetModelPrice(env.Ctx, env.host, modelMixtral, types.AssetClassStable)
	require.NoError(t, err)
	require.True(t, price.Equal(raised))
	env.requireSolvent(t)
}

func TestSetModelPricing_Bounds(t *testing.T) {
	env := setupWithHost(t)

	err := env.Keeper.SetModelPricing(env.Ctx, env.host, modelMixtral, types.AssetClassStable, math.NewInt(5000))
	require.ErrorIs(t, err, types.ErrModelNotSupported)

	err = env.Keeper.SetModelPricing(env.Ctx, env.host, modelLlama, types.AssetClassStable, math.ZeroInt())
	require.ErrorIs(t, err, types.ErrInvalidPrice)

	err = env.Keeper.ClearModelPricing(env.Ctx, env.host, modelLlama, types.AssetClassStable)
	require.NoError(t, err)
	err = env.Keeper.ClearModelPricing(env.Ctx, env.host, modelLlama, types.AssetClassStable)
	require.ErrorIs(t, err, types.ErrPriceNotSet)

	prices, err := env.Keeper.ListModelPrices(env.Ctx, env.host)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	require.Equal(t, types.AssetClassNative, prices[0].Class)
}

func TestAddStakeAndUnregister(t *testing.T) {
	env := setupWithHost(t)
	before := env.Balance(env.host, nativeDenom)

	require.NoError(t, env.Keeper.AddStake(env.Ctx, env.host, math.NewInt(500_000)))
	require.True(t, env.Balance(env.host, nativeDenom).Equal(before.SubRaw(500_000)))
	env.requireSolvent(t)

	returned, err := env.Keeper.UnregisterHost(env.Ctx, env.host)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1_500_000), returned)
	require.True(t, env.Balance(env.host, nativeDenom).Equal(before.AddRaw(1_000_000)))

	_, err = env.Keeper.GetHost(env.Ctx, env.host)
	require.ErrorIs(t, err, types.ErrHostNotFound)
	_, total, err := env.Keeper.ListActiveHosts(env.Ctx, 0, 0)
	require.NoError(t, err)
	require.Zero(t, total)
	prices, err := env.Keeper.ListModelPrices(env.Ctx, env.host)
	require.ErrorIs(t, err, types.ErrHostNotFound)
	require.Nil(t, prices)

	_, err = env.Keeper.CreateSession(env.Ctx, env.depositor, env.terms())
	require.ErrorIs(t, err, types.ErrHostNotFound)
	env.requireSolvent(t)
}

func TestActiveHostIndex_SwapAndPop(t *testing.T) {
	env := setupEnv(t)
	hosts := make([]sdk.AccAddress, 4)
	for i := range hosts {
		hosts[i] = testkeeper.TestAddr("indexed-host-" + string(rune('a'+i)))
		env.Fund(t, hosts[i], sdk.NewCoins(sdk.NewCoin(nativeDenom, startingFunds)))
		env.registerHost(t, hosts[i], modelLlama)
	}

	_, err := env.Keeper.UnregisterHost(env.Ctx, hosts[1])
	require.NoError(t, err)

	listed, total, err := env.Keeper.ListActiveHosts(env.Ctx, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), total)
	// the last host moved into the freed slot
	require.Equal(t, []string{hosts[0].String(), hosts[3].String(), hosts[2].String()}, addresses(listed))

	byModel, total, err := env.Keeper.ListHostsForModel(env.Ctx, modelLlama, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), total)
	require.Equal(t, addresses(listed), addresses(byModel))

	page, _, err := env.Keeper.ListActiveHosts(env.Ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []string{hosts[3].String()}, addresses(page))

	page, _, err = env.Keeper.ListActiveHosts(env.Ctx, 5, 1)
	require.NoError(t, err)
	require.Empty(t, page)
}

func addresses(hosts []types.Host) []string {
	out := make([]string, len(hosts))
	for i, h := range hosts {
		out[i] = h.Address
	}
	return out
}
