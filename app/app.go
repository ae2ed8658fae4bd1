package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	"github.com/cosmos/cosmos-sdk/codec/address"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/std"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"go.opentelemetry.io/otel"

	"github.com/paw-chain/settlement/app/telemetry"
	"github.com/paw-chain/settlement/x/settlement"
	settlementkeeper "github.com/paw-chain/settlement/x/settlement/keeper"
	settlementtypes "github.com/paw-chain/settlement/x/settlement/types"
	whitelistkeeper "github.com/paw-chain/settlement/x/whitelist/keeper"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

const (
	// Name is the application name
	Name = "settlement"

	// FaucetModuleName owns the mint permission used by genesis allocations and
	// the dev faucet.
	FaucetModuleName = "faucet"

	// MetaStoreKey holds executor bookkeeping such as the last block time.
	MetaStoreKey = "app_meta"
)

var (
	// DefaultNodeHome default home directories for the node
	DefaultNodeHome string

	lastBlockTimeKey = []byte("last_block_time")
	chainIDKey       = []byte("chain_id")
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".settlementd")
}

// Config tunes the executor.
type Config struct {
	// Authority may update params, manage the model whitelist and withdraw the
	// treasury. Defaults to the gov module address.
	Authority string

	// Faucet gates the dev faucet.
	Faucet FaucetConfig

	// AssertInvariants runs every registered invariant before committing a block
	// and rejects the transaction when one breaks.
	AssertInvariants bool

	// Clock supplies block times; defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns a config with the faucet disabled.
func DefaultConfig() Config {
	return Config{
		Authority: authtypes.NewModuleAddress(govtypes.ModuleName).String(),
		Faucet:    DefaultFaucetConfig(),
		Clock:     time.Now,
	}
}

// Result describes a committed transaction.
type Result struct {
	Height  int64      `json:"height"`
	Time    time.Time  `json:"time"`
	AppHash []byte     `json:"app_hash"`
	Events  sdk.Events `json:"events"`
}

// SettlementApp is a single-node serialized executor. Every Deliver call is one
// block holding one transaction: it runs on a branch of the committed state and
// is committed only when it succeeds.
type SettlementApp struct {
	mu sync.RWMutex

	logger log.Logger
	db     dbm.DB
	cms    storetypes.CommitMultiStore
	cdc    codec.Codec
	config Config

	// keys to access the substores
	keys map[string]*storetypes.KVStoreKey

	// keepers
	AccountKeeper    authkeeper.AccountKeeper
	BankKeeper       bankkeeper.BaseKeeper
	WhitelistKeeper  *whitelistkeeper.Keeper
	SettlementKeeper *settlementkeeper.Keeper

	settlementModule settlement.AppModule
	invariants       []invariantRoute
	metrics          *ExecutorMetrics

	chainID       string
	height        int64
	lastBlockTime time.Time
}

type invariantRoute struct {
	module string
	route  string
	check  sdk.Invariant
}

// NewSettlementApp returns an executor over db, loading the latest committed
// version. A fresh database must be initialized with InitChain before use.
func NewSettlementApp(logger log.Logger, db dbm.DB, cfg Config) (*SettlementApp, error) {
	if cfg.Authority == "" {
		cfg.Authority = DefaultConfig().Authority
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if err := cfg.Faucet.Validate(); err != nil {
		return nil, err
	}

	keys := storetypes.NewKVStoreKeys(
		authtypes.StoreKey, banktypes.StoreKey,
		whitelisttypes.StoreKey, settlementtypes.StoreKey,
		MetaStoreKey,
	)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load latest version: %w", err)
	}

	registry := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	banktypes.RegisterInterfaces(registry)
	cdc := codec.NewProtoCodec(registry)

	maccPerms := map[string][]string{
		FaucetModuleName:           {authtypes.Minter},
		settlementtypes.ModuleName: nil,
	}
	blocked := map[string]bool{
		authtypes.NewModuleAddress(settlementtypes.ModuleName).String(): true,
	}
	bech32Prefix := sdk.GetConfig().GetBech32AccountAddrPrefix()

	app := &SettlementApp{
		logger: logger.With("module", "app"),
		db:     db,
		cms:    cms,
		cdc:    cdc,
		config: cfg,
		keys:   keys,
	}

	app.AccountKeeper = authkeeper.NewAccountKeeper(
		cdc,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		address.NewBech32Codec(bech32Prefix),
		bech32Prefix,
		cfg.Authority,
	)
	app.BankKeeper = bankkeeper.NewBaseKeeper(
		cdc,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		app.AccountKeeper,
		blocked,
		cfg.Authority,
		logger,
	)
	app.WhitelistKeeper = whitelistkeeper.NewKeeper(keys[whitelisttypes.StoreKey], cfg.Authority)
	app.SettlementKeeper = settlementkeeper.NewKeeper(
		keys[settlementtypes.StoreKey],
		app.BankKeeper,
		app.AccountKeeper,
		app.WhitelistKeeper,
		cfg.Authority,
	)
	app.settlementModule = settlement.NewAppModule(app.SettlementKeeper)
	app.settlementModule.RegisterInvariants(app)

	executorMetrics, err := NewExecutorMetrics(otel.Meter(telemetry.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to create executor metrics: %w", err)
	}
	app.metrics = executorMetrics

	app.height = cms.LastCommitID().Version
	if app.height > 0 {
		if err := app.loadMeta(); err != nil {
			return nil, err
		}
		if err := app.migrate(); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// RegisterRoute implements sdk.InvariantRegistry.
func (app *SettlementApp) RegisterRoute(moduleName, route string, invar sdk.Invariant) {
	app.invariants = append(app.invariants, invariantRoute{module: moduleName, route: route, check: invar})
}

// Initialized reports whether InitChain has committed.
func (app *SettlementApp) Initialized() bool {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.height > 0
}

// ChainID returns the chain id recorded at genesis.
func (app *SettlementApp) ChainID() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.chainID
}

// LastHeight returns the last committed height.
func (app *SettlementApp) LastHeight() int64 {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.height
}

// LastBlockTime returns the time of the last committed block.
func (app *SettlementApp) LastBlockTime() time.Time {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.lastBlockTime
}

// Logger returns the executor logger.
func (app *SettlementApp) Logger() log.Logger {
	return app.logger
}

// Authority returns the configured governance authority.
func (app *SettlementApp) Authority() string {
	return app.config.Authority
}

// InitChain loads doc into an empty store and commits height 1.
func (app *SettlementApp) InitChain(ctx context.Context, doc GenesisDoc) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.height > 0 {
		return ErrAlreadyInitiated.Wrapf("store is at height %d", app.height)
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	header := cmtproto.Header{ChainID: doc.ChainID, Height: 1, Time: doc.GenesisTime.UTC()}
	branch := app.cms.CacheMultiStore()
	sdkCtx := sdk.NewContext(branch, header, false, app.logger).WithContext(ctx)

	var balances BalancesGenesis
	if err := doc.section(BalancesModuleName, &balances); err != nil {
		return err
	}
	if err := app.mintBalances(sdkCtx, balances.Balances); err != nil {
		return err
	}

	whitelistGenesis := whitelisttypes.DefaultGenesis()
	if err := doc.section(whitelisttypes.ModuleName, whitelistGenesis); err != nil {
		return err
	}
	if err := app.WhitelistKeeper.InitGenesis(sdkCtx, *whitelistGenesis); err != nil {
		return fmt.Errorf("failed to init %s genesis: %w", whitelisttypes.ModuleName, err)
	}

	settlementGenesis, ok := doc.AppState[settlementtypes.ModuleName]
	if !ok {
		settlementGenesis = app.settlementModule.DefaultGenesis()
	}
	if err := app.settlementModule.InitGenesis(sdkCtx, settlementGenesis); err != nil {
		return fmt.Errorf("failed to init %s genesis: %w", settlementtypes.ModuleName, err)
	}

	if app.config.AssertInvariants {
		if err := app.assertInvariants(sdkCtx); err != nil {
			return err
		}
	}

	app.chainID = doc.ChainID
	app.writeMeta(sdkCtx, header.Time)
	branch.Write()
	commitID := app.cms.Commit()
	app.height = commitID.Version
	app.lastBlockTime = header.Time

	app.logger.Info("chain initialized", "chain_id", doc.ChainID, "height", app.height, "balances", len(balances.Balances))
	return nil
}

func (app *SettlementApp) mintBalances(ctx sdk.Context, balances []Balance) error {
	moduleAccounts := map[string]string{
		authtypes.NewModuleAddress(settlementtypes.ModuleName).String(): settlementtypes.ModuleName,
	}
	for _, b := range balances {
		if b.Coins.IsZero() {
			continue
		}
		if err := app.BankKeeper.MintCoins(ctx, FaucetModuleName, b.Coins); err != nil {
			return fmt.Errorf("failed to mint genesis balance for %s: %w", b.Address, err)
		}
		if module, ok := moduleAccounts[b.Address]; ok {
			if err := app.BankKeeper.SendCoinsFromModuleToModule(ctx, FaucetModuleName, module, b.Coins); err != nil {
				return fmt.Errorf("failed to fund module %s: %w", module, err)
			}
			continue
		}
		addr, err := sdk.AccAddressFromBech32(b.Address)
		if err != nil {
			return ErrGenesis.Wrapf("balance %s: %v", b.Address, err)
		}
		if err := app.BankKeeper.SendCoinsFromModuleToAccount(ctx, FaucetModuleName, addr, b.Coins); err != nil {
			return fmt.Errorf("failed to fund %s: %w", b.Address, err)
		}
	}
	return nil
}

// Deliver runs fn as the single transaction of a new block. The block is
// committed only when fn succeeds; on error the branch is discarded and the
// height does not advance.
func (app *SettlementApp) Deliver(ctx context.Context, op string, fn func(ctx sdk.Context) error) (Result, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.height == 0 {
		return Result{}, ErrNotInitiated
	}

	start := time.Now()
	header := app.nextHeader()
	ctx, span := telemetry.StartTxSpan(ctx, op, header.Height)
	defer span.End()

	branch := app.cms.CacheMultiStore()
	sdkCtx := sdk.NewContext(branch, header, false, app.logger).WithContext(ctx)

	err := app.runTx(sdkCtx, op, func(ctx sdk.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		if app.config.AssertInvariants {
			return app.assertInvariants(ctx)
		}
		return nil
	})
	if err != nil {
		app.metrics.RecordTransaction(ctx, op, time.Since(start), false)
		telemetry.FinishTx(span, err)
		logRejection(app.logger, op, header.Height, err)
		return Result{}, err
	}

	app.writeMeta(sdkCtx, header.Time)
	branch.Write()
	commitID := app.cms.Commit()
	app.height = commitID.Version
	app.lastBlockTime = header.Time

	app.metrics.RecordTransaction(ctx, op, time.Since(start), true)
	app.metrics.RecordBlockHeight(ctx, app.height)
	telemetry.FinishTx(span, nil)

	return Result{
		Height:  app.height,
		Time:    header.Time,
		AppHash: commitID.Hash,
		Events:  sdkCtx.EventManager().Events(),
	}, nil
}

// Query runs fn read-only against the last committed state at the current
// clock time. Writes made by fn are discarded. Queries are serialized with
// blocks because IAVL working trees do not support concurrent readers.
func (app *SettlementApp) Query(ctx context.Context, fn func(ctx sdk.Context) error) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.height == 0 {
		return ErrNotInitiated
	}
	header := cmtproto.Header{ChainID: app.chainID, Height: app.height, Time: app.blockTime()}
	sdkCtx := sdk.NewContext(app.cms.CacheMultiStore(), header, false, app.logger).WithContext(ctx)
	return app.runTx(sdkCtx, "query", fn)
}

// runTx runs fn on a branch and returns a panic as ErrPanicRecovered, so the
// caller discards the branch like any other rejection.
func (app *SettlementApp) runTx(ctx sdk.Context, op string, fn func(ctx sdk.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("panic recovered",
				"op", op,
				"height", ctx.BlockHeight(),
				"panic", fmt.Sprintf("%v", r),
				"stack_trace", string(debug.Stack()),
			)
			err = ErrPanicRecovered.Wrapf("%s: %v", op, r)
		}
	}()

	return fn(ctx)
}

// ExportGenesis dumps the committed state as a genesis document.
func (app *SettlementApp) ExportGenesis(ctx context.Context) (GenesisDoc, error) {
	doc := GenesisDoc{AppState: make(GenesisState)}
	err := app.Query(ctx, func(ctx sdk.Context) error {
		doc.ChainID = app.chainID
		doc.GenesisTime = app.lastBlockTime

		var balances []Balance
		byAddr := map[string]sdk.Coins{}
		app.BankKeeper.IterateAllBalances(ctx, func(addr sdk.AccAddress, coin sdk.Coin) bool {
			byAddr[addr.String()] = byAddr[addr.String()].Add(coin)
			return false
		})
		addrs := make([]string, 0, len(byAddr))
		for addr := range byAddr {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			balances = append(balances, Balance{Address: addr, Coins: byAddr[addr]})
		}
		doc.AppState[BalancesModuleName] = mustMarshalJSON(BalancesGenesis{Balances: balances})

		whitelistGenesis, err := app.WhitelistKeeper.ExportGenesis(ctx)
		if err != nil {
			return err
		}
		doc.AppState[whitelisttypes.ModuleName] = mustMarshalJSON(whitelistGenesis)

		settlementGenesis, err := app.settlementModule.ExportGenesis(ctx)
		if err != nil {
			return err
		}
		doc.AppState[settlementtypes.ModuleName] = settlementGenesis
		return nil
	})
	return doc, err
}

// CheckInvariants runs every registered invariant against committed state.
func (app *SettlementApp) CheckInvariants(ctx context.Context) error {
	return app.Query(ctx, app.assertInvariants)
}

func (app *SettlementApp) assertInvariants(ctx sdk.Context) error {
	if len(app.invariants) == 0 {
		return nil
	}
	var broken []string
	for _, inv := range app.invariants {
		if msg, stop := inv.check(ctx); stop {
			broken = append(broken, strings.TrimSpace(msg))
		}
	}
	if len(broken) > 0 {
		app.logger.Error("invariant broken", "count", len(broken), "details", broken)
		return ErrInvariantBroken.Wrap(strings.Join(broken, "; "))
	}
	return nil
}

// InvariantRoutes lists the registered invariant routes.
func (app *SettlementApp) InvariantRoutes() []string {
	routes := make([]string, 0, len(app.invariants))
	for _, inv := range app.invariants {
		routes = append(routes, inv.module+"/"+inv.route)
	}
	return routes
}

// Close releases the database.
func (app *SettlementApp) Close() error {
	return app.db.Close()
}

// nextHeader returns the header of the next block. Block time never moves
// backwards even if the wall clock does.
func (app *SettlementApp) nextHeader() cmtproto.Header {
	return cmtproto.Header{
		ChainID: app.chainID,
		Height:  app.height + 1,
		Time:    app.blockTime(),
	}
}

func (app *SettlementApp) blockTime() time.Time {
	now := app.config.Clock().UTC()
	if now.Before(app.lastBlockTime) {
		return app.lastBlockTime
	}
	return now
}

func (app *SettlementApp) writeMeta(ctx sdk.Context, blockTime time.Time) {
	meta := ctx.KVStore(app.keys[MetaStoreKey])
	bz, err := blockTime.MarshalBinary()
	if err != nil {
		panic(fmt.Errorf("failed to encode block time: %w", err))
	}
	meta.Set(lastBlockTimeKey, bz)
	meta.Set(chainIDKey, []byte(app.chainID))
}

func (app *SettlementApp) loadMeta() error {
	meta := app.cms.GetKVStore(app.keys[MetaStoreKey])
	app.chainID = string(meta.Get(chainIDKey))
	if bz := meta.Get(lastBlockTimeKey); bz != nil {
		if err := app.lastBlockTime.UnmarshalBinary(bz); err != nil {
			return fmt.Errorf("failed to decode last block time: %w", err)
		}
	}
	return nil
}

// migrate upgrades module stores written by an older binary and commits the
// result as its own block.
func (app *SettlementApp) migrate() error {
	header := cmtproto.Header{ChainID: app.chainID, Height: app.height + 1, Time: app.lastBlockTime}
	branch := app.cms.CacheMultiStore()
	sdkCtx := sdk.NewContext(branch, header, false, app.logger)

	from := app.SettlementKeeper.StoredSchemaVersion(sdkCtx)
	if from >= app.settlementModule.ConsensusVersion() {
		return nil
	}
	app.logger.Info("migrating store", "module", settlementtypes.ModuleName, "from", from,
		"to", app.settlementModule.ConsensusVersion())
	if err := app.settlementModule.RunMigrations(sdkCtx, from); err != nil {
		return err
	}
	app.writeMeta(sdkCtx, header.Time)
	branch.Write()
	app.height = app.cms.Commit().Version
	return nil
}
