package keeper

import (
	"context"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
	"github.com/paw-chain/settlement/x/shared/replay"
)

// Keeper of the settlement store
type Keeper struct {
	storeKey      storetypes.StoreKey
	bankKeeper    types.BankKeeper
	accountKeeper types.AccountKeeper
	whitelist     types.ModelWhitelist
	verifier      types.ProofVerifier
	proofReplay   *replay.Guard
	authority     string

	// guard is shared by every copy of the keeper so a reentrant call through a
	// bank hook observes the outer call's marker.
	guard *callGuard

	metrics *SettlementMetrics
}

type kvStoreProvider interface {
	KVStore(key storetypes.StoreKey) storetypes.KVStore
}

// NewKeeper creates a new settlement Keeper instance
func NewKeeper(
	key storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	accountKeeper types.AccountKeeper,
	whitelist types.ModelWhitelist,
	authority string,
) *Keeper {
	return &Keeper{
		storeKey:      key,
		bankKeeper:    bankKeeper,
		accountKeeper: accountKeeper,
		whitelist:     whitelist,
		verifier:      DigestProofVerifier{},
		proofReplay:   replay.NewGuard(key, ProofReplayPrefix, replayErrors{}),
		authority:     authority,
		guard:         &callGuard{},
		metrics:       NewSettlementMetrics(),
	}
}

// SetProofVerifier replaces the default digest verifier.
func (k *Keeper) SetProofVerifier(v types.ProofVerifier) {
	k.verifier = v
}

// SetBankKeeper replaces the token ledger. Used by tests that observe transfers.
func (k *Keeper) SetBankKeeper(bk types.BankKeeper) {
	k.bankKeeper = bk
}

// GetAuthority returns the module's governance authority.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// ModuleAddress returns the escrow account holding deposits, stakes, earnings and treasury.
func (k Keeper) ModuleAddress() sdk.AccAddress {
	return k.accountKeeper.GetModuleAddress(types.ModuleName)
}

// getStore returns the KVStore for the settlement module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	if provider, ok := ctx.(kvStoreProvider); ok {
		return provider.KVStore(k.storeKey)
	}

	unwrapped := sdk.UnwrapSDKContext(ctx)
	return unwrapped.KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// replayErrors maps replay guard failures onto settlement errors.
type replayErrors struct{}

func (replayErrors) ReplayError(msg string) error {
	return types.ErrProofReplayed.Wrap(msg)
}

func (replayErrors) InvalidIDError(msg string) error {
	return types.ErrInvalidProofHash.Wrap(msg)
}
