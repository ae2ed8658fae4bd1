package keeper

import (
	"context"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// GetSession returns a session by id.
func (k Keeper) GetSession(ctx context.Context, id uint64) (types.SessionJob, error) {
	s, found, err := getRecord[types.SessionJob](k.getStore(ctx), SessionKey(id))
	if err != nil {
		return types.SessionJob{}, err
	}
	if !found {
		return types.SessionJob{}, types.ErrSessionNotFound.Wrapf("session %d", id)
	}
	return s, nil
}

func (k Keeper) setSession(ctx context.Context, s types.SessionJob) error {
	s.SchemaVersion = types.SchemaVersion
	return setRecord(k.getStore(ctx), SessionKey(s.ID), s)
}

// activeSession loads a session and rejects it unless it is Active. Terminal
// sessions are never mutated.
func (k Keeper) activeSession(ctx context.Context, id uint64) (types.SessionJob, error) {
	s, err := k.GetSession(ctx, id)
	if err != nil {
		return types.SessionJob{}, err
	}
	if s.Status != types.SessionStatusActive {
		return types.SessionJob{}, types.ErrSessionNotActive.Wrapf("session %d is %s", id, s.Status)
	}
	return s, nil
}

// NextSessionID returns the id the next session will receive.
func (k Keeper) NextSessionID(ctx context.Context) uint64 {
	return getCounter(k.getStore(ctx), NextSessionIDKey, 1)
}

func (k Keeper) allocateSessionID(ctx context.Context) uint64 {
	store := k.getStore(ctx)
	id := getCounter(store, NextSessionIDKey, 1)
	setCounter(store, NextSessionIDKey, id+1)
	return id
}

// CreateSession opens a session funded by and owned by depositor.
func (k Keeper) CreateSession(ctx context.Context, depositor sdk.AccAddress, terms types.SessionTerms) (uint64, error) {
	var id uint64
	err := k.execute(ctx, types.TypeMsgCreateSession, func(ctx sdk.Context) error {
		var err error
		id, err = k.openSession(ctx, depositor, depositor, terms)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateSessionForPayer opens a session on behalf of payer. The caller must be the
// payer or hold the payer's authorization. Funds come from the payer, who owns the
// session and receives any refund.
func (k Keeper) CreateSessionForPayer(ctx context.Context, creator, payer sdk.AccAddress, terms types.SessionTerms) (uint64, error) {
	var id uint64
	err := k.execute(ctx, types.TypeMsgCreateSessionForPayer, func(ctx sdk.Context) error {
		if !k.IsAuthorizedDelegate(ctx, payer, creator) {
			return types.ErrDelegateNotAuthorized.Wrapf("%s may not open sessions for %s", creator, payer)
		}
		var err error
		id, err = k.openSession(ctx, creator, payer, terms)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// validateTerms checks session terms against the host's published prices and the
// module bounds. It returns the applicable minimum price.
func (k Keeper) validateTerms(ctx context.Context, params types.Params, h types.Host, terms types.SessionTerms) (math.Int, error) {
	if !h.Active {
		return math.Int{}, types.ErrHostNotActive.Wrapf("host %s", h.Address)
	}
	if terms.ModelID != "" && !h.SupportsModel(terms.ModelID) {
		return math.Int{}, types.ErrModelNotSupported.Wrapf("host %s does not support %q", h.Address, terms.ModelID)
	}
	class, err := params.AssetClassOf(terms.Denom)
	if err != nil {
		return math.Int{}, err
	}
	minPrice, err := k.resolveMinPrice(ctx, h, terms.ModelID, class)
	if err != nil {
		return math.Int{}, err
	}
	if terms.PricePerUnit.IsNil() || terms.PricePerUnit.LT(minPrice) {
		return math.Int{}, types.ErrPriceBelowMinimum.Wrapf("price %s below host minimum %s", terms.PricePerUnit, minPrice)
	}
	if err := params.ValidatePrice(class, terms.PricePerUnit); err != nil {
		return math.Int{}, err
	}
	if floor := params.MinDeposit(class); terms.Deposit.IsNil() || terms.Deposit.LT(floor) {
		return math.Int{}, types.ErrDepositTooLow.Wrapf("deposit %s below %s floor %s", terms.Deposit, class, floor)
	}
	if err := types.ValidateAmountBitLen("deposit", terms.Deposit); err != nil {
		return math.Int{}, err
	}
	if terms.MaxDurationSeconds == 0 || terms.MaxDurationSeconds > params.MaxSessionDurationSeconds {
		return math.Int{}, types.ErrInvalidDuration.Wrapf("max duration %ds outside [1, %d]", terms.MaxDurationSeconds, params.MaxSessionDurationSeconds)
	}
	if terms.ProofInterval < params.MinProofInterval || terms.ProofInterval > params.MaxProofInterval {
		return math.Int{}, types.ErrInvalidProofInterval.Wrapf("proof interval %d outside [%d, %d]",
			terms.ProofInterval, params.MinProofInterval, params.MaxProofInterval)
	}
	maxUnits, err := types.MaxUnitsCoverable(terms.Deposit, terms.PricePerUnit)
	if err != nil {
		return math.Int{}, err
	}
	if math.NewIntFromUint64(terms.ProofInterval).GT(maxUnits) {
		return math.Int{}, types.ErrInvalidProofInterval.Wrapf("proof interval %d exceeds the %s units the deposit covers",
			terms.ProofInterval, maxUnits)
	}
	return minPrice, nil
}

func (k Keeper) openSession(ctx sdk.Context, creator, payer sdk.AccAddress, terms types.SessionTerms) (uint64, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}
	hostAddr, err := sdk.AccAddressFromBech32(terms.Host)
	if err != nil {
		return 0, types.ErrInvalidAddress.Wrapf("host: %v", err)
	}
	h, err := k.GetHost(ctx, hostAddr)
	if err != nil {
		return 0, err
	}
	if _, err := k.validateTerms(ctx, params, h, terms); err != nil {
		return 0, err
	}

	if err := k.escrowIn(ctx, payer, terms.Denom, terms.Deposit); err != nil {
		return 0, err
	}

	id := k.allocateSessionID(ctx)
	now := ctx.BlockTime().UTC()
	session := types.SessionJob{
		ID:                 id,
		Depositor:          payer.String(),
		Creator:            creator.String(),
		Host:               h.Address,
		ModelID:            terms.ModelID,
		Denom:              terms.Denom,
		Deposit:            terms.Deposit,
		PricePerUnit:       terms.PricePerUnit,
		StartTime:          now,
		MaxDurationSeconds: terms.MaxDurationSeconds,
		ProofInterval:      terms.ProofInterval,
		Status:             types.SessionStatusActive,
	}
	if err := k.setSession(ctx, session); err != nil {
		return 0, err
	}
	store := k.getStore(ctx)
	store.Set(SessionByDepositorKey(session.Depositor, id), []byte{0x01})
	store.Set(SessionByHostKey(session.Host, id), []byte{0x01})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSessionCreated,
			sdk.NewAttribute(types.AttributeKeySessionID, uintString(id)),
			sdk.NewAttribute(types.AttributeKeyDepositor, session.Depositor),
			sdk.NewAttribute(types.AttributeKeyCreator, session.Creator),
			sdk.NewAttribute(types.AttributeKeyHost, session.Host),
			sdk.NewAttribute(types.AttributeKeyModelID, session.ModelID),
			sdk.NewAttribute(types.AttributeKeyDenom, session.Denom),
			sdk.NewAttribute(types.AttributeKeyDeposit, session.Deposit.String()),
			sdk.NewAttribute(types.AttributeKeyPricePerUnit, session.PricePerUnit.String()),
		),
	)
	k.metrics.SessionsCreated.WithLabelValues(session.Denom, boolString(session.IsDelegated())).Inc()

	if err := k.appendAudit(ctx, auditEntry{
		kind:      AuditKindSessionCreated,
		actor:     session.Creator,
		sessionID: id,
		host:      session.Host,
		amounts: []types.AuditAmount{
			amount("deposit", session.Denom, session.Deposit),
			amount("price_per_unit", session.Denom, session.PricePerUnit),
		},
		refs: map[string]string{"depositor": session.Depositor, "model_id": session.ModelID},
	}); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessionsByDepositor returns a depositor's sessions in id order.
func (k Keeper) ListSessionsByDepositor(ctx context.Context, depositor sdk.AccAddress) ([]types.SessionJob, error) {
	return k.sessionsUnder(ctx, SessionByDepositorPrefix(depositor.String()))
}

// ListSessionsByHost returns a host's sessions in id order.
func (k Keeper) ListSessionsByHost(ctx context.Context, host sdk.AccAddress) ([]types.SessionJob, error) {
	return k.sessionsUnder(ctx, SessionByHostPrefix(host.String()))
}

func (k Keeper) sessionsUnder(ctx context.Context, prefix []byte) ([]types.SessionJob, error) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	sessions := []types.SessionJob{}
	for ; iterator.Valid(); iterator.Next() {
		id := GetUint64FromBytes(iterator.Key()[len(prefix):])
		s, err := k.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// IterateSessions walks every session in id order.
func (k Keeper) IterateSessions(ctx context.Context, cb func(types.SessionJob) (stop bool, err error)) error {
	return iterateRecords(k.getStore(ctx), SessionKeyPrefix, func(_ []byte, s types.SessionJob) (bool, error) {
		return cb(s)
	})
}
