package keeper

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// DigestProofVerifier accepts any well-formed 32-byte digest and uses the digest
// itself as the replay key. Proof contents are checked off-chain.
type DigestProofVerifier struct{}

var zeroDigest = make([]byte, types.ProofHashLength)

// Verify implements types.ProofVerifier.
func (DigestProofVerifier) Verify(_ context.Context, claim types.ProofClaim) ([]byte, error) {
	if len(claim.ProofHash) != types.ProofHashLength {
		return nil, types.ErrInvalidProofHash.Wrapf("expected %d bytes, got %d", types.ProofHashLength, len(claim.ProofHash))
	}
	if bytes.Equal(claim.ProofHash, zeroDigest) {
		return nil, types.ErrProofRejected.Wrap("zero digest")
	}
	return append([]byte{}, claim.ProofHash...), nil
}

// SubmitProof records a proof checkpoint. Only the session's host may submit, the
// session must be Active and the proof's replay key must never have been seen by
// any session. Units are added to the session's running total.
func (k Keeper) SubmitProof(
	ctx context.Context,
	host sdk.AccAddress,
	sessionID uint64,
	unitsClaimed uint64,
	proofHash []byte,
	proofRef, deltaRef string,
) (types.SessionJob, error) {
	var updated types.SessionJob
	err := k.execute(ctx, types.TypeMsgSubmitProof, func(ctx sdk.Context) error {
		s, err := k.activeSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Host != host.String() {
			return types.ErrNotSessionHost.Wrapf("%s is not the host of session %d", host, sessionID)
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if unitsClaimed < params.MinProvenUnitsPerProof {
			return types.ErrUnitsBelowMinimum.Wrapf("%d units below minimum %d", unitsClaimed, params.MinProvenUnitsPerProof)
		}
		if err := types.ValidateContentRef("proof_ref", proofRef, params.MaxContentRefLength, params.StrictContentRefs); err != nil {
			return err
		}
		if err := types.ValidateContentRef("delta_ref", deltaRef, params.MaxContentRefLength, params.StrictContentRefs); err != nil {
			return err
		}
		if s.ProvenUnits > math.MaxUint64-unitsClaimed {
			return types.ErrArithmeticOverflow.Wrapf("session %d proven units overflow", sessionID)
		}

		replayKey, err := k.verifier.Verify(ctx, types.ProofClaim{
			SessionID: sessionID,
			Host:      s.Host,
			Units:     unitsClaimed,
			ProofHash: proofHash,
			ProofRef:  proofRef,
		})
		if err != nil {
			if types.CategoryOf(err) == types.CategoryInternal {
				return types.ErrProofRejected.Wrap(err.Error())
			}
			return err
		}

		// First write of the operation: consume the proof before touching the session.
		if err := k.proofReplay.MarkUsed(ctx, replayKey, fmt.Sprintf("session/%d", sessionID)); err != nil {
			k.metrics.ProofsReplayed.Inc()
			return err
		}

		now := ctx.BlockTime().UTC()
		hashHex := hex.EncodeToString(proofHash)
		submission := types.ProofSubmission{
			SessionID:   sessionID,
			Index:       s.ProofCount,
			Units:       unitsClaimed,
			ProofHash:   hashHex,
			ProofRef:    proofRef,
			DeltaRef:    deltaRef,
			SubmittedAt: now,
		}
		if err := setRecord(k.getStore(ctx), ProofSubmissionKey(sessionID, submission.Index), submission); err != nil {
			return err
		}

		s.ProvenUnits += unitsClaimed
		s.ProofCount++
		s.LastProofTime = now
		s.LastProofHash = hashHex
		s.LastProofRef = proofRef
		if deltaRef != "" {
			s.DeltaRef = deltaRef
		}
		if err := k.setSession(ctx, s); err != nil {
			return err
		}
		updated = s

		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeProofSubmitted,
				sdk.NewAttribute(types.AttributeKeySessionID, uintString(sessionID)),
				sdk.NewAttribute(types.AttributeKeyHost, s.Host),
				sdk.NewAttribute(types.AttributeKeyUnits, uintString(unitsClaimed)),
				sdk.NewAttribute(types.AttributeKeyProvenUnits, uintString(s.ProvenUnits)),
				sdk.NewAttribute(types.AttributeKeyProofHash, hashHex),
				sdk.NewAttribute(types.AttributeKeyProofRef, proofRef),
				sdk.NewAttribute(types.AttributeKeyDeltaRef, deltaRef),
			),
		)
		k.metrics.ProofsAccepted.Inc()
		k.metrics.ProvenUnits.Add(float64(unitsClaimed))

		return k.appendAudit(ctx, auditEntry{
			kind:      AuditKindProofSubmitted,
			actor:     s.Host,
			sessionID: sessionID,
			host:      s.Host,
			refs: map[string]string{
				"proof_hash": hashHex,
				"proof_ref":  proofRef,
				"delta_ref":  deltaRef,
				"units":      uintString(unitsClaimed),
			},
		})
	})
	if err != nil {
		return types.SessionJob{}, err
	}
	return updated, nil
}

// GetProofSubmissions returns the accepted proofs of a session in submission order.
func (k Keeper) GetProofSubmissions(ctx context.Context, sessionID uint64) ([]types.ProofSubmission, error) {
	proofs := []types.ProofSubmission{}
	err := iterateRecords(k.getStore(ctx), ProofSubmissionSessionPrefix(sessionID), func(_ []byte, p types.ProofSubmission) (bool, error) {
		proofs = append(proofs, p)
		return false, nil
	})
	return proofs, err
}

// IterateProofSubmissions walks every proof record.
func (k Keeper) IterateProofSubmissions(ctx context.Context, cb func(types.ProofSubmission) (stop bool, err error)) error {
	return iterateRecords(k.getStore(ctx), ProofSubmissionPrefix, func(_ []byte, p types.ProofSubmission) (bool, error) {
		return cb(p)
	})
}

// IsProofConsumed reports whether a proof digest has already been accepted.
func (k Keeper) IsProofConsumed(ctx sdk.Context, replayKey []byte) bool {
	return k.proofReplay.IsUsed(ctx, replayKey)
}
