package keeper

import (
	"context"
	"math"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// CompleteSession ends an Active session and distributes its deposit. The depositor
// may complete at any time; the host only once the dispute window has elapsed.
// A depositor ending a session that never received a proof pays the early-cancel fee
// instead of the proven-work split.
func (k Keeper) CompleteSession(ctx context.Context, caller sdk.AccAddress, sessionID uint64, conversationRef string) (types.SettlementSummary, error) {
	var summary types.SettlementSummary
	err := k.execute(ctx, types.TypeMsgCompleteSession, func(ctx sdk.Context) error {
		s, err := k.activeSession(ctx, sessionID)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if err := types.ValidateContentRef("conversation_ref", conversationRef, params.MaxContentRefLength, params.StrictContentRefs); err != nil {
			return err
		}

		now := ctx.BlockTime().UTC()
		var split types.Split
		switch caller.String() {
		case s.Depositor:
			if s.ProofCount == 0 {
				split = types.ComputeEarlyCancelSplit(s.Deposit, s.PricePerUnit, params.MinEarlyCancelUnits)
			} else {
				split = types.ComputeSplit(s.Deposit, s.PricePerUnit, s.ProvenUnits, params.ProtocolFeeBps)
			}
		case s.Host:
			opensAt := s.StartTime.Add(params.DisputeWindow())
			if now.Before(opensAt) {
				return types.ErrDisputeWindowOpen.Wrapf("host may complete session %d from %s", sessionID, opensAt.Format("2006-01-02T15:04:05Z"))
			}
			split = types.ComputeSplit(s.Deposit, s.PricePerUnit, s.ProvenUnits, params.ProtocolFeeBps)
		default:
			return types.ErrNotSessionParty.Wrapf("%s is neither depositor nor host of session %d", caller, sessionID)
		}

		if conversationRef != "" {
			s.ConversationRef = conversationRef
		}
		summary, err = k.settle(ctx, s, split, types.SessionStatusCompleted, caller.String())
		return err
	})
	if err != nil {
		return types.SettlementSummary{}, err
	}
	return summary, nil
}

// TriggerTimeout ends a stalled or expired session. Anyone may call it once the
// session has been idle longer than its proof interval allows or has outlived its
// maximum duration. The split is the proven-work split with no early-cancel fee.
func (k Keeper) TriggerTimeout(ctx context.Context, caller sdk.AccAddress, sessionID uint64) (types.SettlementSummary, error) {
	var summary types.SettlementSummary
	err := k.execute(ctx, types.TypeMsgTriggerTimeout, func(ctx sdk.Context) error {
		s, err := k.activeSession(ctx, sessionID)
		if err != nil {
			return err
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if !TimeoutReached(params, s, ctx.BlockTime()) {
			return types.ErrTimeoutNotReached.Wrapf("session %d last active %s", sessionID, s.LastActivity().Format("2006-01-02T15:04:05Z"))
		}
		split := types.ComputeSplit(s.Deposit, s.PricePerUnit, s.ProvenUnits, params.ProtocolFeeBps)
		summary, err = k.settle(ctx, s, split, types.SessionStatusTimedOut, caller.String())
		return err
	})
	if err != nil {
		return types.SettlementSummary{}, err
	}
	return summary, nil
}

// EstimateSettlement previews the split a completion by caller would produce now.
// It writes nothing.
func (k Keeper) EstimateSettlement(ctx context.Context, sessionID uint64, asDepositor bool) (types.SettlementSummary, error) {
	s, err := k.GetSession(ctx, sessionID)
	if err != nil {
		return types.SettlementSummary{}, err
	}
	if s.Status.IsTerminal() {
		if s.Settlement == nil {
			return types.SettlementSummary{}, types.ErrRecordCorrupted.Wrapf("session %d is %s without a settlement", sessionID, s.Status)
		}
		return *s.Settlement, nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return types.SettlementSummary{}, err
	}
	if asDepositor && s.ProofCount == 0 {
		return types.ComputeEarlyCancelSplit(s.Deposit, s.PricePerUnit, params.MinEarlyCancelUnits).Summary(), nil
	}
	return types.ComputeSplit(s.Deposit, s.PricePerUnit, s.ProvenUnits, params.ProtocolFeeBps).Summary(), nil
}

// settle applies a split to a session: host earnings and treasury are credited,
// the session becomes terminal and the refund is transferred last.
func (k Keeper) settle(ctx sdk.Context, s types.SessionJob, split types.Split, status types.SessionStatus, endedBy string) (types.SettlementSummary, error) {
	if !split.Total().Equal(s.Deposit) {
		return types.SettlementSummary{}, types.ErrArithmeticOverflow.Wrapf("split of session %d sums to %s, deposit %s", s.ID, split.Total(), s.Deposit)
	}
	depositor, err := sdk.AccAddressFromBech32(s.Depositor)
	if err != nil {
		return types.SettlementSummary{}, types.ErrRecordCorrupted.Wrapf("session %d depositor: %v", s.ID, err)
	}

	if err := k.creditEarnings(ctx, s.Host, s.Denom, split.HostPayout, s.ID); err != nil {
		return types.SettlementSummary{}, err
	}
	if err := k.accrueTreasury(ctx, s.Denom, split.TreasuryFee, "protocol_fee"); err != nil {
		return types.SettlementSummary{}, err
	}

	summary := split.Summary()
	summary.EndedBy = endedBy
	summary.EndedAt = ctx.BlockTime().UTC()
	s.Status = status
	s.Settlement = &summary
	if err := k.setSession(ctx, s); err != nil {
		return types.SettlementSummary{}, err
	}

	eventType, auditKind := types.EventTypeSessionCompleted, AuditKindSessionCompleted
	if status == types.SessionStatusTimedOut {
		eventType, auditKind = types.EventTypeSessionTimedOut, AuditKindSessionTimedOut
	}
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeySessionID, uintString(s.ID)),
			sdk.NewAttribute(types.AttributeKeyActor, endedBy),
			sdk.NewAttribute(types.AttributeKeyHost, s.Host),
			sdk.NewAttribute(types.AttributeKeyDepositor, s.Depositor),
			sdk.NewAttribute(types.AttributeKeyDenom, s.Denom),
			sdk.NewAttribute(types.AttributeKeyProvenUnits, uintString(s.ProvenUnits)),
			sdk.NewAttribute(types.AttributeKeyHostPayout, split.HostPayout.String()),
			sdk.NewAttribute(types.AttributeKeyTreasuryFee, split.TreasuryFee.String()),
			sdk.NewAttribute(types.AttributeKeyRefund, split.Refund.String()),
			sdk.NewAttribute(types.AttributeKeyEarlyCancel, boolString(split.EarlyCancel)),
			sdk.NewAttribute(types.AttributeKeyConversationRef, s.ConversationRef),
		),
	)
	if err := k.appendAudit(ctx, auditEntry{
		kind:      auditKind,
		actor:     endedBy,
		sessionID: s.ID,
		host:      s.Host,
		amounts: []types.AuditAmount{
			amount("host_payout", s.Denom, split.HostPayout),
			amount("treasury_fee", s.Denom, split.TreasuryFee),
			amount("refund", s.Denom, split.Refund),
		},
		refs: map[string]string{
			"depositor":        s.Depositor,
			"conversation_ref": s.ConversationRef,
			"early_cancel":     boolString(split.EarlyCancel),
		},
	}); err != nil {
		return types.SettlementSummary{}, err
	}

	k.metrics.SessionsSettled.WithLabelValues(status.String(), boolString(split.EarlyCancel)).Inc()
	addAmount(k.metrics.SettlementPayouts.WithLabelValues(s.Denom, "host"), split.HostPayout)
	addAmount(k.metrics.SettlementPayouts.WithLabelValues(s.Denom, "treasury"), split.TreasuryFee)
	addAmount(k.metrics.SettlementPayouts.WithLabelValues(s.Denom, "refund"), split.Refund)

	k.Logger(ctx).Info("session settled",
		"session_id", s.ID,
		"status", status.String(),
		"host_payout", split.HostPayout.String(),
		"treasury_fee", split.TreasuryFee.String(),
		"refund", split.Refund.String(),
	)

	if err := k.payOut(ctx, depositor, s.Denom, split.Refund); err != nil {
		return types.SettlementSummary{}, err
	}
	return summary, nil
}

// TimeoutReached reports whether a session may be timed out at now: either it has
// gone quiet for longer than ProofInterval*TimeoutIntervalMultiplier seconds since
// its last activity, or it has run past its maximum duration.
func TimeoutReached(params types.Params, s types.SessionJob, now time.Time) bool {
	idleLimit := s.ProofInterval * params.TimeoutIntervalMultiplier
	if s.ProofInterval != 0 && idleLimit/s.ProofInterval != params.TimeoutIntervalMultiplier {
		idleLimit = math.MaxUint64
	}
	if types.ElapsedSeconds(s.LastActivity(), now) > idleLimit {
		return true
	}
	return types.ElapsedSeconds(s.StartTime, now) > s.MaxDurationSeconds
}
