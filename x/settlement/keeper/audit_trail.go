package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// Audit record kinds
const (
	AuditKindHostRegistered    = "host.registered"
	AuditKindHostUnregistered  = "host.unregistered"
	AuditKindHostPricing       = "host.pricing"
	AuditKindHostModelPricing  = "host.model_pricing"
	AuditKindHostMetadata      = "host.metadata"
	AuditKindHostEndpoint      = "host.endpoint"
	AuditKindHostModels        = "host.models"
	AuditKindHostStakeAdded    = "host.stake_added"
	AuditKindHostSlashed       = "host.slashed"
	AuditKindSessionCreated    = "session.created"
	AuditKindProofSubmitted    = "session.proof"
	AuditKindSessionCompleted  = "session.completed"
	AuditKindSessionTimedOut   = "session.timed_out"
	AuditKindEarningsWithdrawn = "earnings.withdrawn"
	AuditKindDelegateSet       = "delegate.set"
	AuditKindTreasuryWithdrawn = "treasury.withdrawn"
	AuditKindParamsUpdated     = "params.updated"
)

// auditEntry is what an operation records; the keeper fills in sequence and block context.
type auditEntry struct {
	kind      string
	actor     string
	sessionID uint64
	host      string
	amounts   []types.AuditAmount
	refs      map[string]string
}

func amount(label, denom string, v math.Int) types.AuditAmount {
	return types.AuditAmount{Label: label, Denom: denom, Amount: v.String()}
}

// appendAudit stores an immutable audit record and emits it as an event.
func (k Keeper) appendAudit(ctx sdk.Context, entry auditEntry) error {
	store := k.getStore(ctx)
	seq := getCounter(store, NextAuditSeqKey, 1)

	refs := make(map[string]string, len(entry.refs))
	for key, v := range entry.refs {
		if v != "" {
			refs[key] = v
		}
	}
	if len(refs) == 0 {
		refs = nil
	}

	record := types.AuditRecord{
		Seq:       seq,
		Kind:      entry.kind,
		Actor:     entry.actor,
		SessionID: entry.sessionID,
		Host:      entry.host,
		Amounts:   entry.amounts,
		Refs:      refs,
		Height:    ctx.BlockHeight(),
		Time:      ctx.BlockTime().UTC(),
	}
	if err := setRecord(store, AuditRecordKey(seq), record); err != nil {
		return err
	}
	setCounter(store, NextAuditSeqKey, seq+1)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeAuditTrail,
			sdk.NewAttribute(types.AttributeKeySequence, fmt.Sprintf("%d", seq)),
			sdk.NewAttribute(types.AttributeKeyKind, entry.kind),
			sdk.NewAttribute(types.AttributeKeyActor, entry.actor),
		),
	)

	ctx.Logger().Info("audit: "+entry.kind,
		"seq", seq,
		"actor", entry.actor,
		"host", entry.host,
		"session_id", entry.sessionID,
	)
	return nil
}

// IterateAuditRecords walks audit records with seq >= fromSeq, at most limit of them
// when limit > 0, until cb returns true.
func (k Keeper) IterateAuditRecords(ctx context.Context, fromSeq uint64, limit int, cb func(types.AuditRecord) bool) error {
	store := k.getStore(ctx)
	iterator := store.Iterator(AuditRecordKey(fromSeq), AuditRecordKey(^uint64(0)))
	defer iterator.Close()

	n := 0
	for ; iterator.Valid(); iterator.Next() {
		var rec types.AuditRecord
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			return types.ErrRecordCorrupted.Wrapf("audit record %x: %v", iterator.Key(), err)
		}
		if cb(rec) {
			return nil
		}
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	return nil
}

// GetAuditRecords returns up to limit records starting at fromSeq.
func (k Keeper) GetAuditRecords(ctx context.Context, fromSeq uint64, limit int) ([]types.AuditRecord, error) {
	records := []types.AuditRecord{}
	err := k.IterateAuditRecords(ctx, fromSeq, limit, func(rec types.AuditRecord) bool {
		records = append(records, rec)
		return false
	})
	return records, err
}

// NextAuditSeq returns the sequence number the next record will get.
func (k Keeper) NextAuditSeq(ctx context.Context) uint64 {
	return getCounter(k.getStore(ctx), NextAuditSeqKey, 1)
}
