package keeper

import (
	"context"
	"strings"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
	sharedkeeper "github.com/paw-chain/settlement/x/shared/keeper"
)

// SlashHost penalizes a host's stake on behalf of the slashing authority. The slashed
// amount moves to the native treasury accumulator. A host whose stake drops below
// MinStakeAfterSlash is unregistered and receives the remainder back.
func (k Keeper) SlashHost(
	ctx context.Context,
	authority string,
	host sdk.AccAddress,
	amt math.Int,
	evidenceRef, reason string,
) (types.SlashRecord, error) {
	var record types.SlashRecord
	err := k.execute(ctx, types.TypeMsgSlashHost, func(ctx sdk.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := sharedkeeper.ValidateAuthorityOneOf(authority, k.SlashingAuthority(params)); err != nil {
			return types.ErrNotSlashingAuthority.Wrap(err.Error())
		}
		h, err := k.activeHost(ctx, host)
		if err != nil {
			return err
		}
		if strings.TrimSpace(evidenceRef) == "" || strings.TrimSpace(reason) == "" {
			return types.ErrInvalidEvidence.Wrap("evidence and reason are required")
		}
		if err := types.ValidateContentRef("evidence_ref", evidenceRef, params.MaxContentRefLength, params.StrictContentRefs); err != nil {
			return err
		}
		if amt.IsNil() || !amt.IsPositive() {
			return types.ErrInvalidAmount.Wrap("slash amount must be positive")
		}

		maxSlash := h.Stake.Mul(math.NewIntFromUint64(params.MaxSlashBps)).Quo(math.NewInt(types.BasisPoints))
		if amt.GT(maxSlash) {
			return types.ErrSlashExceedsCap.Wrapf("slash %s exceeds %s (%d bps of stake %s)", amt, maxSlash, params.MaxSlashBps, h.Stake)
		}

		now := ctx.BlockTime().UTC()
		if !h.LastSlashAt.IsZero() {
			next := h.LastSlashAt.Add(params.SlashCooldown())
			if now.Before(next) {
				return types.ErrSlashCooldown.Wrapf("host %s may be slashed again at %s", h.Address, next)
			}
		}

		h.Stake = h.Stake.Sub(amt)
		h.TotalSlashed = h.TotalSlashed.Add(amt)
		h.LastSlashAt = now
		if err := k.accrueTreasury(ctx, params.NativeDenom, amt, "slash"); err != nil {
			return err
		}

		autoUnregister := h.Stake.LT(params.MinStakeAfterSlash)
		record = types.SlashRecord{
			Host:             h.Address,
			Authority:        authority,
			Amount:           amt,
			StakeAfter:       h.Stake,
			EvidenceRef:      evidenceRef,
			Reason:           reason,
			AutoUnregistered: autoUnregister,
			Height:           ctx.BlockHeight(),
			Timestamp:        now,
		}
		if err := k.appendSlashRecord(ctx, record); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeHostSlashed,
				sdk.NewAttribute(types.AttributeKeyHost, h.Address),
				sdk.NewAttribute(types.AttributeKeyAmount, amt.String()),
				sdk.NewAttribute(types.AttributeKeyStake, h.Stake.String()),
				sdk.NewAttribute(types.AttributeKeyEvidenceRef, evidenceRef),
				sdk.NewAttribute(types.AttributeKeyReason, reason),
				sdk.NewAttribute(types.AttributeKeyAutoUnregister, boolString(autoUnregister)),
			),
		)
		k.metrics.HostSlashes.WithLabelValues(boolString(autoUnregister)).Inc()
		if err := k.appendAudit(ctx, auditEntry{
			kind:    AuditKindHostSlashed,
			actor:   authority,
			host:    h.Address,
			amounts: []types.AuditAmount{amount("slashed", params.NativeDenom, amt), amount("stake", params.NativeDenom, h.Stake)},
			refs:    map[string]string{"evidence_ref": evidenceRef, "reason": reason},
		}); err != nil {
			return err
		}

		if autoUnregister {
			_, err := k.removeHost(ctx, params, h, authority, "slashed below minimum stake")
			return err
		}
		return k.setHost(ctx, h)
	})
	if err != nil {
		return types.SlashRecord{}, err
	}
	return record, nil
}

func (k Keeper) appendSlashRecord(ctx sdk.Context, record types.SlashRecord) error {
	store := k.getStore(ctx)
	seq := getCounter(store, NextSlashSeqKey, 1)
	if err := setRecord(store, SlashRecordKey(record.Host, seq), record); err != nil {
		return err
	}
	setCounter(store, NextSlashSeqKey, seq+1)
	return nil
}

// GetSlashRecords returns a host's slash history, oldest first. Records survive
// unregistration.
func (k Keeper) GetSlashRecords(ctx context.Context, host sdk.AccAddress) ([]types.SlashRecord, error) {
	records := []types.SlashRecord{}
	err := iterateRecords(k.getStore(ctx), SlashRecordHostPrefix(host.String()), func(_ []byte, rec types.SlashRecord) (bool, error) {
		records = append(records, rec)
		return false, nil
	})
	return records, err
}

// IterateSlashRecords walks every slash record.
func (k Keeper) IterateSlashRecords(ctx context.Context, cb func(types.SlashRecord) (stop bool, err error)) error {
	return iterateRecords(k.getStore(ctx), SlashRecordKeyPrefix, func(_ []byte, rec types.SlashRecord) (bool, error) {
		return cb(rec)
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
