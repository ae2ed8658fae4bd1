package keeper_test

import (
	"crypto/sha256"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	testkeeper "github.com/paw-chain/settlement/testutil/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	nativeDenom  = "upaw"
	stableDenom  = "uusdc"
	modelLlama   = "llama-3-8b"
	modelMixtral = "mixtral-8x7b"
)

var (
	hostMinNative = math.NewInt(227_273)
	hostMinStable = math.NewInt(2000)
	startingFunds = math.NewInt(100_000_000)
)

type testEnv struct {
	*testkeeper.SettlementFixture
	host      sdk.AccAddress
	depositor sdk.AccAddress
	stranger  sdk.AccAddress
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		SettlementFixture: testkeeper.SettlementKeeper(t),
		host:              testkeeper.TestAddr("host"),
		depositor:         testkeeper.TestAddr("depositor"),
		stranger:          testkeeper.TestAddr("stranger"),
	}
	env.ApproveModels(t, modelLlama, modelMixtral)
	for _, addr := range []sdk.AccAddress{env.host, env.depositor, env.stranger} {
		env.Fund(t, addr, sdk.NewCoins(
			sdk.NewCoin(nativeDenom, startingFunds),
			sdk.NewCoin(stableDenom, startingFunds),
		))
	}
	return env
}

// setupWithHost registers env.host for modelLlama at the default prices.
func setupWithHost(t *testing.T) *testEnv {
	t.Helper()
	env := setupEnv(t)
	env.registerHost(t, env.host, modelLlama)
	return env
}

func (e *testEnv) registerHost(t *testing.T, host sdk.AccAddress, models ...string) {
	t.Helper()
	require.NoError(t, e.Keeper.RegisterHost(e.Ctx, host, "gpu=a100", "https://host.example/v1", models, hostMinNative, hostMinStable))
}

func (e *testEnv) terms() types.SessionTerms {
	return types.SessionTerms{
		Host:               e.host.String(),
		ModelID:            modelLlama,
		Denom:              stableDenom,
		Deposit:            math.NewInt(1_000_000),
		PricePerUnit:       math.NewInt(2000),
		MaxDurationSeconds: 3600,
		ProofInterval:      100,
	}
}

func (e *testEnv) openSession(t *testing.T) uint64 {
	t.Helper()
	id, err := e.Keeper.CreateSession(e.Ctx, e.depositor, e.terms())
	require.NoError(t, err)
	return id
}

func (e *testEnv) prove(t *testing.T, sessionID, units uint64, seed string) {
	t.Helper()
	_, err := e.Keeper.SubmitProof(e.Ctx, e.host, sessionID, units, digest(seed), "", "")
	require.NoError(t, err)
}

func (e *testEnv) requireSolvent(t *testing.T) {
	t.Helper()
	owed, err := e.Keeper.Liabilities(e.Ctx)
	require.NoError(t, err)
	for _, coin := range owed {
		require.True(t, e.ModuleBalance(coin.Denom).Equal(coin.Amount),
			"module holds %s %s, owes %s", e.ModuleBalance(coin.Denom), coin.Denom, coin.Amount)
	}
}

func digest(seed string) []byte {
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}
