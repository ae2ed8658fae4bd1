// Package apptest builds fully wired settlement executors for tests.
package apptest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/app"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

// GenesisTime is the time every test chain starts at.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// DefaultModels are approved in every test genesis.
var DefaultModels = []string{"llama-3-8b", "mixtral-8x7b"}

// Clock is a manually advanced block clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t, which may be in the past.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// TestApp is an initialized executor over an in-memory database.
type TestApp struct {
	*app.SettlementApp
	DB     dbm.DB
	Clock  *Clock
	Config app.Config
}

// Option customizes the executor config before it is built.
type Option func(*app.Config)

// WithFaucet enables the faucet with a one hour cooldown.
func WithFaucet() Option {
	return func(cfg *app.Config) {
		cfg.Faucet.Enabled = true
	}
}

// WithInvariants asserts every invariant before each commit.
func WithInvariants() Option {
	return func(cfg *app.Config) {
		cfg.AssertInvariants = true
	}
}

// Addr derives a deterministic account address from seed.
func Addr(seed string) sdk.AccAddress {
	sum := sha256.Sum256([]byte(seed))
	return sdk.AccAddress(sum[:20])
}

// DefaultCoins is the genesis allocation of every funded address.
func DefaultCoins() sdk.Coins {
	return sdk.NewCoins(
		sdk.NewCoin(app.NativeDenom, math.NewInt(100_000_000)),
		sdk.NewCoin(app.StableDenom, math.NewInt(100_000_000)),
	)
}

// Genesis returns a genesis document funding addrs with DefaultCoins and
// approving DefaultModels.
func Genesis(t testing.TB, addrs ...sdk.AccAddress) app.GenesisDoc {
	t.Helper()

	doc := app.NewGenesisDoc("settlement-test", GenesisTime)

	balances := app.BalancesGenesis{Balances: make([]app.Balance, 0, len(addrs))}
	for _, addr := range addrs {
		balances.Balances = append(balances.Balances, app.Balance{Address: addr.String(), Coins: DefaultCoins()})
	}
	bz, err := json.Marshal(balances)
	require.NoError(t, err)
	doc.AppState[app.BalancesModuleName] = bz

	whitelist := whitelisttypes.GenesisState{}
	for _, id := range DefaultModels {
		whitelist.Models = append(whitelist.Models, whitelisttypes.ApprovedModel{
			ID:         id,
			Name:       id,
			ApprovedBy: app.DefaultConfig().Authority,
			ApprovedAt: GenesisTime,
		})
	}
	bz, err = json.Marshal(whitelist)
	require.NoError(t, err)
	doc.AppState[whitelisttypes.ModuleName] = bz

	return doc
}

// New returns an executor initialized from a genesis funding addrs.
func New(t testing.TB, addrs []sdk.AccAddress, opts ...Option) *TestApp {
	t.Helper()
	ta := Open(t, dbm.NewMemDB(), NewClock(GenesisTime), opts...)
	require.NoError(t, ta.InitChain(context.Background(), Genesis(t, addrs...)))
	return ta
}

// Open builds an executor over db without initializing it.
func Open(t testing.TB, db dbm.DB, clock *Clock, opts ...Option) *TestApp {
	t.Helper()

	cfg := app.DefaultConfig()
	cfg.Clock = clock.Now
	for _, opt := range opts {
		opt(&cfg)
	}
	settlementApp, err := app.NewSettlementApp(log.NewNopLogger(), db, cfg)
	require.NoError(t, err)
	return &TestApp{SettlementApp: settlementApp, DB: db, Clock: clock, Config: cfg}
}

// Reopen builds a second executor over the same database, as a restart would.
func (ta *TestApp) Reopen(t testing.TB) *TestApp {
	t.Helper()
	return Open(t, ta.DB, ta.Clock, func(cfg *app.Config) { *cfg = ta.Config })
}

// Balance returns addr's committed balance in denom.
func (ta *TestApp) Balance(t testing.TB, addr sdk.AccAddress, denom string) math.Int {
	t.Helper()
	var amt math.Int
	require.NoError(t, ta.Query(context.Background(), func(ctx sdk.Context) error {
		amt = ta.BankKeeper.GetBalance(ctx, addr, denom).Amount
		return nil
	}))
	return amt
}
