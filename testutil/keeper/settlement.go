package keeper

import (
	"crypto/sha256"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
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
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
	whitelistkeeper "github.com/paw-chain/settlement/x/whitelist/keeper"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

// FaucetModuleName is the minting module used to fund test accounts.
const FaucetModuleName = "faucet"

// GenesisTime is the block time every fixture starts at.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// SettlementFixture bundles a settlement keeper with the real auth, bank and
// whitelist keepers it runs against.
type SettlementFixture struct {
	Keeper    *keeper.Keeper
	Whitelist *whitelistkeeper.Keeper
	Bank      bankkeeper.BaseKeeper
	Account   authkeeper.AccountKeeper
	Ctx       sdk.Context
	Authority string
	StoreKey  *storetypes.KVStoreKey
}

// SettlementKeeper creates a settlement keeper backed by an in-memory IAVL store
func SettlementKeeper(t testing.TB) *SettlementFixture {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	whitelistStoreKey := storetypes.NewKVStoreKey(whitelisttypes.StoreKey)
	authStoreKey := storetypes.NewKVStoreKey(authtypes.StoreKey)
	bankStoreKey := storetypes.NewKVStoreKey(banktypes.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(whitelistStoreKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(authStoreKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankStoreKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	registry := codectypes.NewInterfaceRegistry()
	std.RegisterInterfaces(registry)
	authtypes.RegisterInterfaces(registry)
	banktypes.RegisterInterfaces(registry)
	cdc := codec.NewProtoCodec(registry)
	authority := authtypes.NewModuleAddress(govtypes.ModuleName).String()

	maccPerms := map[string][]string{
		FaucetModuleName: {authtypes.Minter},
		types.ModuleName: nil,
	}
	bech32Prefix := sdk.GetConfig().GetBech32AccountAddrPrefix()
	accountKeeper := authkeeper.NewAccountKeeper(
		cdc,
		runtime.NewKVStoreService(authStoreKey),
		authtypes.ProtoBaseAccount,
		maccPerms,
		address.NewBech32Codec(bech32Prefix),
		bech32Prefix,
		authority,
	)
	bankKeeper := bankkeeper.NewBaseKeeper(
		cdc,
		runtime.NewKVStoreService(bankStoreKey),
		accountKeeper,
		map[string]bool{},
		authority,
		log.NewNopLogger(),
	)

	whitelist := whitelistkeeper.NewKeeper(whitelistStoreKey, authority)
	k := keeper.NewKeeper(storeKey, bankKeeper, accountKeeper, whitelist, authority)

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Height: 1, Time: GenesisTime}, false, log.NewNopLogger())

	return &SettlementFixture{
		Keeper:    k,
		Whitelist: whitelist,
		Bank:      bankKeeper,
		Account:   accountKeeper,
		Ctx:       ctx,
		Authority: authority,
		StoreKey:  storeKey,
	}
}

// TestAddr derives a deterministic account address from seed.
func TestAddr(seed string) sdk.AccAddress {
	sum := sha256.Sum256([]byte(seed))
	return sdk.AccAddress(sum[:20])
}

// Fund mints coins to addr through the faucet module.
func (f *SettlementFixture) Fund(t testing.TB, addr sdk.AccAddress, coins sdk.Coins) {
	t.Helper()
	require.NoError(t, f.Bank.MintCoins(f.Ctx, FaucetModuleName, coins))
	require.NoError(t, f.Bank.SendCoinsFromModuleToAccount(f.Ctx, FaucetModuleName, addr, coins))
}

// Balance returns addr's balance in denom.
func (f *SettlementFixture) Balance(addr sdk.AccAddress, denom string) math.Int {
	return f.Bank.GetBalance(f.Ctx, addr, denom).Amount
}

// ModuleBalance returns the settlement module account's balance in denom.
func (f *SettlementFixture) ModuleBalance(denom string) math.Int {
	return f.Balance(f.Keeper.ModuleAddress(), denom)
}

// ApproveModels adds ids to the model whitelist.
func (f *SettlementFixture) ApproveModels(t testing.TB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.Whitelist.ApproveModel(f.Ctx, f.Authority, whitelisttypes.ApprovedModel{ID: id, Name: id}))
	}
}

// Advance moves the block clock forward by d and bumps the height.
func (f *SettlementFixture) Advance(d time.Duration) {
	f.Ctx = f.Ctx.WithBlockTime(f.Ctx.BlockTime().Add(d)).WithBlockHeight(f.Ctx.BlockHeight() + 1)
}
