package keeper

import (
	"context"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
	"github.com/paw-chain/settlement/x/shared/replay"
)

// InitGenesis initializes the settlement module's state from a genesis state
func (k Keeper) InitGenesis(ctx context.Context, data types.GenesisState) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	store := k.getStore(ctx)

	if err := k.SetParams(ctx, data.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}

	for _, h := range data.Hosts {
		if err := k.setHost(ctx, h); err != nil {
			return fmt.Errorf("failed to initialize host %s: %w", h.Address, err)
		}
	}
	if err := k.rebuildHostIndexes(ctx); err != nil {
		return fmt.Errorf("failed to index hosts: %w", err)
	}

	for _, p := range data.ModelPrices {
		if err := k.setModelPrice(ctx, p.Host, p.ModelID, p.Class, p.Price); err != nil {
			return fmt.Errorf("failed to set price for %s/%s: %w", p.Host, p.ModelID, err)
		}
	}

	var maxSessionID uint64
	for _, s := range data.Sessions {
		if err := k.setSession(ctx, s); err != nil {
			return fmt.Errorf("failed to initialize session %d: %w", s.ID, err)
		}
		store.Set(SessionByDepositorKey(s.Depositor, s.ID), []byte{0x01})
		store.Set(SessionByHostKey(s.Host, s.ID), []byte{0x01})
		if s.ID > maxSessionID {
			maxSessionID = s.ID
		}
	}

	for _, p := range data.Proofs {
		if err := setRecord(store, ProofSubmissionKey(p.SessionID, p.Index), p); err != nil {
			return fmt.Errorf("failed to initialize proof %d/%d: %w", p.SessionID, p.Index, err)
		}
	}

	for _, e := range data.Earnings {
		if err := setInt(store, EarningsKey(e.Host, e.Denom), e.Amount); err != nil {
			return fmt.Errorf("failed to initialize earnings for %s: %w", e.Host, err)
		}
	}

	for _, t := range data.Treasury {
		if err := setInt(store, TreasuryKey(t.Denom), t.Amount); err != nil {
			return fmt.Errorf("failed to initialize treasury %s: %w", t.Denom, err)
		}
	}

	for _, d := range data.Delegations {
		if err := setRecord(store, DelegationKey(d.Payer, d.Delegate), d); err != nil {
			return fmt.Errorf("failed to initialize delegation %s -> %s: %w", d.Payer, d.Delegate, err)
		}
	}

	for _, rec := range data.SlashRecords {
		if err := k.appendSlashRecord(sdkCtx, rec); err != nil {
			return fmt.Errorf("failed to initialize slash record for %s: %w", rec.Host, err)
		}
	}

	for _, rec := range data.ConsumedProofs {
		if err := k.proofReplay.Import(sdkCtx, rec); err != nil {
			return fmt.Errorf("failed to import consumed proof %s: %w", rec.ID, err)
		}
	}

	nextSessionID := data.NextSessionID
	if nextSessionID <= maxSessionID {
		nextSessionID = maxSessionID + 1
	}
	setCounter(store, NextSessionIDKey, nextSessionID)
	if data.NextAuditSeq > 0 {
		setCounter(store, NextAuditSeqKey, data.NextAuditSeq)
	}
	setCounter(store, SchemaVersionKey, uint64(types.SchemaVersion))

	return nil
}

// ExportGenesis returns the settlement module's exported genesis
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}

	gs := types.DefaultGenesis()
	gs.Params = params

	if err := k.IterateHosts(ctx, func(h types.Host) (bool, error) {
		gs.Hosts = append(gs.Hosts, h)
		addr, err := sdk.AccAddressFromBech32(h.Address)
		if err != nil {
			return true, types.ErrRecordCorrupted.Wrapf("host address %q: %v", h.Address, err)
		}
		prices, err := k.ListModelPrices(ctx, addr)
		if err != nil {
			return true, err
		}
		gs.ModelPrices = append(gs.ModelPrices, prices...)
		return false, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to export hosts: %w", err)
	}

	if err := k.IterateSessions(ctx, func(s types.SessionJob) (bool, error) {
		gs.Sessions = append(gs.Sessions, s)
		return false, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}

	if err := k.IterateProofSubmissions(ctx, func(p types.ProofSubmission) (bool, error) {
		gs.Proofs = append(gs.Proofs, p)
		return false, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to export proofs: %w", err)
	}

	if err := k.IterateEarnings(ctx, func(e types.Earnings) bool {
		gs.Earnings = append(gs.Earnings, e)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to export earnings: %w", err)
	}

	treasury, err := k.GetAllTreasury(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export treasury: %w", err)
	}
	gs.Treasury = treasury

	if err := k.IterateDelegations(ctx, func(d types.Delegation) (bool, error) {
		gs.Delegations = append(gs.Delegations, d)
		return false, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to export delegations: %w", err)
	}

	if err := k.IterateSlashRecords(ctx, func(rec types.SlashRecord) (bool, error) {
		gs.SlashRecords = append(gs.SlashRecords, rec)
		return false, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to export slash records: %w", err)
	}

	k.proofReplay.Iterate(sdkCtx, func(rec replay.Record) bool {
		gs.ConsumedProofs = append(gs.ConsumedProofs, rec)
		return false
	})

	gs.NextSessionID = k.NextSessionID(ctx)
	gs.NextAuditSeq = k.NextAuditSeq(ctx)
	return gs, nil
}

// rebuildHostIndexes recreates the active-host and per-model dense indexes from
// the host table.
func (k Keeper) rebuildHostIndexes(ctx context.Context) error {
	store := k.getStore(ctx)
	var hosts []types.Host
	if err := k.IterateHosts(ctx, func(h types.Host) (bool, error) {
		hosts = append(hosts, h)
		return false, nil
	}); err != nil {
		return err
	}

	activeHostIndex().clear(store)
	for _, h := range hosts {
		for _, id := range h.SupportedModels {
			modelHostIndex(id).clear(store)
		}
	}
	for _, h := range hosts {
		if !h.Active {
			continue
		}
		activeHostIndex().add(store, h.Address)
		for _, id := range h.SupportedModels {
			modelHostIndex(id).add(store, h.Address)
		}
	}
	k.metrics.HostsActive.Set(float64(activeHostIndex().len(store)))
	return nil
}
