package app_test

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/app/health"
	"github.com/paw-chain/settlement/testutil/apptest"
	"github.com/paw-chain/settlement/x/settlement/types"
)

var (
	hostAddr      = apptest.Addr("host")
	depositorAddr = apptest.Addr("depositor")
)

func registerHost(t *testing.T, ta *apptest.TestApp) {
	t.Helper()
	_, err := ta.Deliver(context.Background(), "register_host", func(ctx sdk.Context) error {
		return ta.SettlementKeeper.RegisterHost(ctx, hostAddr, "gpu=a100", "https://host.example/v1",
			[]string{"llama-3-8b"}, math.NewInt(227_273), math.NewInt(2000))
	})
	require.NoError(t, err)
}

func openSession(t *testing.T, ta *apptest.TestApp) (uint64, app.Result) {
	t.Helper()
	var id uint64
	res, err := ta.Deliver(context.Background(), "create_session", func(ctx sdk.Context) error {
		var err error
		id, err = ta.SettlementKeeper.CreateSession(ctx, depositorAddr, types.SessionTerms{
			Host:               hostAddr.String(),
			ModelID:            "llama-3-8b",
			Denom:              app.StableDenom,
			Deposit:            math.NewInt(1_000_000),
			PricePerUnit:       math.NewInt(2000),
			MaxDurationSeconds: 3600,
			ProofInterval:      100,
		})
		return err
	})
	require.NoError(t, err)
	return id, res
}

func proofHash(seed string) []byte {
	sum := sha256.Sum256([]byte(seed))
	return sum[:]
}

func TestSettlementLifecycle(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr}, apptest.WithInvariants())
	ctx := context.Background()
	require.Equal(t, int64(1), ta.LastHeight())
	require.Equal(t, "settlement-test", ta.ChainID())

	registerHost(t, ta)
	id, res := openSession(t, ta)
	require.Equal(t, int64(3), res.Height)
	require.NotEmpty(t, res.AppHash)

	var created bool
	for _, ev := range res.Events {
		if ev.Type == types.EventTypeSessionCreated {
			created = true
		}
	}
	require.True(t, created, "session created event must reach the block result")

	_, err := ta.Deliver(ctx, "submit_proof", func(ctx sdk.Context) error {
		_, err := ta.SettlementKeeper.SubmitProof(ctx, hostAddr, id, 300, proofHash("p1"), "", "")
		return err
	})
	require.NoError(t, err)

	ta.Clock.Advance(31 * time.Second)
	var summary types.SettlementSummary
	_, err = ta.Deliver(ctx, "complete_session", func(ctx sdk.Context) error {
		var err error
		summary, err = ta.SettlementKeeper.CompleteSession(ctx, hostAddr, id, "")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, uint64(300), summary.BillableUnits)
	require.True(t, summary.Payment.Equal(math.NewInt(600_000)))
	require.True(t, summary.Total().Equal(math.NewInt(1_000_000)))

	before := ta.Balance(t, hostAddr, app.StableDenom)
	var withdrawn sdk.Coins
	_, err = ta.Deliver(ctx, "withdraw_earnings", func(ctx sdk.Context) error {
		var err error
		withdrawn, err = ta.SettlementKeeper.WithdrawAllEarnings(ctx, hostAddr)
		return err
	})
	require.NoError(t, err)
	require.True(t, withdrawn.AmountOf(app.StableDenom).Equal(summary.HostPayout))
	require.True(t, ta.Balance(t, hostAddr, app.StableDenom).Equal(before.Add(summary.HostPayout)))
	require.Equal(t, int64(6), ta.LastHeight())
	require.NoError(t, ta.CheckInvariants(ctx))
}

func TestDeliverRejectedDoesNotCommit(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr})
	height := ta.LastHeight()
	stranger := apptest.Addr("stranger")

	_, err := ta.Deliver(context.Background(), "partial", func(ctx sdk.Context) error {
		coins := sdk.NewCoins(sdk.NewCoin(app.NativeDenom, math.NewInt(5)))
		if err := ta.BankKeeper.SendCoins(ctx, depositorAddr, stranger, coins); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	require.Equal(t, height, ta.LastHeight())
	require.True(t, ta.Balance(t, stranger, app.NativeDenom).IsZero())
	require.True(t, ta.Balance(t, depositorAddr, app.NativeDenom).Equal(apptest.DefaultCoins().AmountOf(app.NativeDenom)))
}

func TestDeliverRecoversPanic(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr})
	height := ta.LastHeight()
	stranger := apptest.Addr("stranger")

	require.NotPanics(t, func() {
		_, err := ta.Deliver(context.Background(), "panicking", func(ctx sdk.Context) error {
			coins := sdk.NewCoins(sdk.NewCoin(app.NativeDenom, math.NewInt(5)))
			if err := ta.BankKeeper.SendCoins(ctx, depositorAddr, stranger, coins); err != nil {
				return err
			}
			panic("handler crashed")
		})
		require.ErrorIs(t, err, app.ErrPanicRecovered)
		require.Equal(t, app.SeverityCritical, app.SeverityOf(err))
	})
	require.Equal(t, height, ta.LastHeight())
	require.True(t, ta.Balance(t, stranger, app.NativeDenom).IsZero())

	err := ta.Query(context.Background(), func(sdk.Context) error { panic("query crashed") })
	require.ErrorIs(t, err, app.ErrPanicRecovered)

	_, err = ta.Deliver(context.Background(), "noop", func(sdk.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, height+1, ta.LastHeight())
}

func TestLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	ta := apptest.Open(t, dbm.NewMemDB(), apptest.NewClock(apptest.GenesisTime))

	_, err := ta.Deliver(ctx, "noop", func(sdk.Context) error { return nil })
	require.ErrorIs(t, err, app.ErrNotInitiated)
	require.ErrorIs(t, ta.Query(ctx, func(sdk.Context) error { return nil }), app.ErrNotInitiated)
	require.False(t, ta.Initialized())

	doc := apptest.Genesis(t)
	doc.ChainID = ""
	require.ErrorIs(t, ta.InitChain(ctx, doc), app.ErrGenesis)

	require.NoError(t, ta.InitChain(ctx, apptest.Genesis(t)))
	require.True(t, ta.Initialized())
	require.ErrorIs(t, ta.InitChain(ctx, apptest.Genesis(t)), app.ErrAlreadyInitiated)
}

func TestReopenPersistsState(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr})
	registerHost(t, ta)
	id, res := openSession(t, ta)

	reopened := ta.Reopen(t)
	require.Equal(t, res.Height, reopened.LastHeight())
	require.Equal(t, res.Time, reopened.LastBlockTime())
	require.Equal(t, "settlement-test", reopened.ChainID())

	require.NoError(t, reopened.Query(context.Background(), func(ctx sdk.Context) error {
		s, err := reopened.SettlementKeeper.GetSession(ctx, id)
		require.NoError(t, err)
		require.Equal(t, types.SessionStatusActive, s.Status)
		require.Equal(t, uint64(types.SchemaVersion), reopened.SettlementKeeper.StoredSchemaVersion(ctx))
		return nil
	}))
}

func TestBlockTimeNeverDecreases(t *testing.T) {
	ta := apptest.New(t, nil)
	ctx := context.Background()

	ta.Clock.Advance(time.Minute)
	first, err := ta.Deliver(ctx, "noop", func(sdk.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, apptest.GenesisTime.Add(time.Minute), first.Time)

	ta.Clock.Set(apptest.GenesisTime)
	second, err := ta.Deliver(ctx, "noop", func(ctx sdk.Context) error {
		require.Equal(t, first.Time, ctx.BlockTime())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, first.Time, second.Time)
	require.Equal(t, first.Height+1, second.Height)
}

func TestFaucet(t *testing.T) {
	ctx := context.Background()
	recipient := apptest.Addr("recipient")

	disabled := apptest.New(t, nil)
	_, err := disabled.Faucet(ctx, recipient)
	require.ErrorIs(t, err, app.ErrFaucetDisabled)

	ta := apptest.New(t, nil, apptest.WithFaucet())
	drip := ta.Config.Faucet.AmountPerRequest

	_, err = ta.Faucet(ctx, recipient)
	require.NoError(t, err)
	require.True(t, ta.Balance(t, recipient, app.StableDenom).Equal(drip.AmountOf(app.StableDenom)))

	height := ta.LastHeight()
	_, err = ta.Faucet(ctx, recipient)
	require.ErrorIs(t, err, app.ErrFaucetLimit)
	require.Equal(t, height, ta.LastHeight())

	ta.Clock.Advance(time.Hour)
	_, err = ta.Faucet(ctx, recipient)
	require.NoError(t, err)
	require.True(t, ta.Balance(t, recipient, app.NativeDenom).Equal(drip.AmountOf(app.NativeDenom).MulRaw(2)))
}

func TestFaucetConfigValidate(t *testing.T) {
	cfg := app.DefaultFaucetConfig()
	require.NoError(t, cfg.Validate())

	cfg.Enabled = true
	require.NoError(t, cfg.Validate())

	cfg.AmountPerRequest = sdk.NewCoins()
	require.Error(t, cfg.Validate())

	cfg = app.DefaultFaucetConfig()
	cfg.Enabled = true
	cfg.Cooldown = -time.Second
	require.Error(t, cfg.Validate())
}

func TestExportImportGenesis(t *testing.T) {
	ctx := context.Background()
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr})
	registerHost(t, ta)
	openSession(t, ta)

	exported, err := ta.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())

	path := t.TempDir() + "/genesis.json"
	require.NoError(t, exported.SaveAs(path))
	loaded, err := app.LoadGenesisDoc(path)
	require.NoError(t, err)

	imported := apptest.Open(t, dbm.NewMemDB(), apptest.NewClock(loaded.GenesisTime), apptest.WithInvariants())
	require.NoError(t, imported.InitChain(ctx, loaded))
	require.NoError(t, imported.CheckInvariants(ctx))

	reexported, err := imported.ExportGenesis(ctx)
	require.NoError(t, err)
	require.Equal(t, exported.ChainID, reexported.ChainID)
	for module, section := range exported.AppState {
		require.JSONEq(t, string(section), string(reexported.AppState[module]), module)
	}
	require.True(t, imported.Balance(t, depositorAddr, app.StableDenom).Equal(ta.Balance(t, depositorAddr, app.StableDenom)))
}

func TestAssertInvariantsRejectsLeak(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr, depositorAddr}, apptest.WithInvariants())
	registerHost(t, ta)
	openSession(t, ta)
	height := ta.LastHeight()

	_, err := ta.Deliver(context.Background(), "leak", func(ctx sdk.Context) error {
		leaked := sdk.NewCoins(sdk.NewCoin(app.StableDenom, math.NewInt(1)))
		return ta.BankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, apptest.Addr("thief"), leaked)
	})
	require.ErrorIs(t, err, app.ErrInvariantBroken)
	require.Contains(t, err.Error(), app.StableDenom)
	require.Equal(t, height, ta.LastHeight())
	require.NoError(t, ta.CheckInvariants(context.Background()))
}

func TestInvalidGenesisBalances(t *testing.T) {
	doc := apptest.Genesis(t)
	bz, err := json.Marshal(app.BalancesGenesis{Balances: []app.Balance{
		{Address: "not-an-address", Coins: apptest.DefaultCoins()},
	}})
	require.NoError(t, err)
	doc.AppState[app.BalancesModuleName] = bz
	require.ErrorIs(t, doc.Validate(), app.ErrGenesis)

	dup := hostAddr.String()
	bz, err = json.Marshal(app.BalancesGenesis{Balances: []app.Balance{
		{Address: dup, Coins: apptest.DefaultCoins()},
		{Address: dup, Coins: apptest.DefaultCoins()},
	}})
	require.NoError(t, err)
	doc.AppState[app.BalancesModuleName] = bz
	require.ErrorIs(t, doc.Validate(), app.ErrGenesis)
}

func TestHealthChecks(t *testing.T) {
	ta := apptest.New(t, nil)
	require.NotEmpty(t, ta.InvariantRoutes())

	checker := health.NewChecker(log.NewNopLogger(), health.DefaultConfig(), ta.HealthChecks()...)
	ready := checker.Check(context.Background(), false)
	require.Equal(t, health.StatusHealthy, ready.Status)
	require.Contains(t, ready.Components, "store")
	require.NotContains(t, ready.Components, "invariants")

	detailed := checker.Check(context.Background(), true)
	require.Equal(t, health.StatusHealthy, detailed.Status)
	require.Contains(t, detailed.Components, "invariants")

	fresh := apptest.Open(t, dbm.NewMemDB(), apptest.NewClock(apptest.GenesisTime))
	checker = health.NewChecker(log.NewNopLogger(), health.DefaultConfig(), fresh.HealthChecks()...)
	require.Equal(t, health.StatusUnhealthy, checker.Check(context.Background(), false).Status)
}
