package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/x/settlement/types"
)

var _ types.MsgServer = msgServer{}

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

func parseAddress(field, addr string) (sdk.AccAddress, error) {
	acc, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return nil, types.ErrInvalidAddress.Wrapf("invalid %s address: %v", field, err)
	}
	return acc, nil
}

// RegisterHost handles host registration
func (ms msgServer) RegisterHost(goCtx context.Context, msg *types.MsgRegisterHost) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.RegisterHost(
		goCtx,
		host,
		msg.Metadata,
		msg.Endpoint,
		msg.ModelIDs,
		msg.MinPriceNative,
		msg.MinPriceStable,
	); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

// UpdatePricing handles host-level price changes
func (ms msgServer) UpdatePricing(goCtx context.Context, msg *types.MsgUpdatePricing) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.UpdatePricing(goCtx, host, msg.Class, msg.MinPrice); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

// SetModelPricing handles per-model price overrides
func (ms msgServer) SetModelPricing(goCtx context.Context, msg *types.MsgSetModelPricing) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.SetModelPricing(goCtx, host, msg.ModelID, msg.Class, msg.MinPrice); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) ClearModelPricing(goCtx context.Context, msg *types.MsgClearModelPricing) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.ClearModelPricing(goCtx, host, msg.ModelID, msg.Class); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) UpdateMetadata(goCtx context.Context, msg *types.MsgUpdateMetadata) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.UpdateMetadata(goCtx, host, msg.Metadata); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) UpdateEndpoint(goCtx context.Context, msg *types.MsgUpdateEndpoint) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.UpdateEndpoint(goCtx, host, msg.Endpoint); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) UpdateSupportedModels(goCtx context.Context, msg *types.MsgUpdateSupportedModels) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.UpdateSupportedModels(goCtx, host, msg.ModelIDs); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) AddStake(goCtx context.Context, msg *types.MsgAddStake) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.AddStake(goCtx, host, msg.Amount); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

// UnregisterHost handles host exit and stake return
func (ms msgServer) UnregisterHost(goCtx context.Context, msg *types.MsgUnregisterHost) (*types.MsgUnregisterHostResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	returned, err := ms.Keeper.UnregisterHost(goCtx, host)
	if err != nil {
		return nil, err
	}
	return &types.MsgUnregisterHostResponse{StakeReturned: returned}, nil
}

// SlashHost handles stake penalties issued by the slashing authority
func (ms msgServer) SlashHost(goCtx context.Context, msg *types.MsgSlashHost) (*types.MsgSlashHostResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	record, err := ms.Keeper.SlashHost(goCtx, msg.Authority, host, msg.Amount, msg.EvidenceRef, msg.Reason)
	if err != nil {
		return nil, err
	}
	return &types.MsgSlashHostResponse{Record: record}, nil
}

// CreateSession handles a depositor opening a session
func (ms msgServer) CreateSession(goCtx context.Context, msg *types.MsgCreateSession) (*types.MsgCreateSessionResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	depositor, err := parseAddress("depositor", msg.Depositor)
	if err != nil {
		return nil, err
	}
	id, err := ms.Keeper.CreateSession(goCtx, depositor, msg.Terms)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreateSessionResponse{SessionID: id}, nil
}

// CreateSessionForPayer handles a delegate opening a session funded by a payer
func (ms msgServer) CreateSessionForPayer(goCtx context.Context, msg *types.MsgCreateSessionForPayer) (*types.MsgCreateSessionResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	creator, err := parseAddress("creator", msg.Creator)
	if err != nil {
		return nil, err
	}
	payer, err := parseAddress("payer", msg.Payer)
	if err != nil {
		return nil, err
	}
	id, err := ms.Keeper.CreateSessionForPayer(goCtx, creator, payer, msg.Terms)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreateSessionResponse{SessionID: id}, nil
}

// SubmitProof handles a host checkpointing proven work
func (ms msgServer) SubmitProof(goCtx context.Context, msg *types.MsgSubmitProof) (*types.MsgSubmitProofResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	digest, err := types.DecodeProofHash(msg.ProofHash)
	if err != nil {
		return nil, err
	}
	session, err := ms.Keeper.SubmitProof(goCtx, host, msg.SessionID, msg.UnitsClaimed, digest, msg.ProofRef, msg.DeltaRef)
	if err != nil {
		return nil, err
	}
	return &types.MsgSubmitProofResponse{ProvenUnits: session.ProvenUnits, ProofCount: session.ProofCount}, nil
}

// CompleteSession handles a depositor or host ending a session
func (ms msgServer) CompleteSession(goCtx context.Context, msg *types.MsgCompleteSession) (*types.MsgSettleResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", msg.Caller)
	if err != nil {
		return nil, err
	}
	summary, err := ms.Keeper.CompleteSession(goCtx, caller, msg.SessionID, msg.ConversationRef)
	if err != nil {
		return nil, err
	}
	return &types.MsgSettleResponse{Settlement: summary}, nil
}

// TriggerTimeout handles anyone ending a stalled session
func (ms msgServer) TriggerTimeout(goCtx context.Context, msg *types.MsgTriggerTimeout) (*types.MsgSettleResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", msg.Caller)
	if err != nil {
		return nil, err
	}
	summary, err := ms.Keeper.TriggerTimeout(goCtx, caller, msg.SessionID)
	if err != nil {
		return nil, err
	}
	return &types.MsgSettleResponse{Settlement: summary}, nil
}

func (ms msgServer) WithdrawEarnings(goCtx context.Context, msg *types.MsgWithdrawEarnings) (*types.MsgWithdrawResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	paid, err := ms.Keeper.WithdrawEarnings(goCtx, host, msg.Denom)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{Amount: sdk.NewCoins(sdk.NewCoin(msg.Denom, paid))}, nil
}

func (ms msgServer) WithdrawAllEarnings(goCtx context.Context, msg *types.MsgWithdrawAllEarnings) (*types.MsgWithdrawResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	host, err := parseAddress("host", msg.Host)
	if err != nil {
		return nil, err
	}
	paid, err := ms.Keeper.WithdrawAllEarnings(goCtx, host)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{Amount: paid}, nil
}

// SetDelegate handles a payer granting or revoking session creation rights
func (ms msgServer) SetDelegate(goCtx context.Context, msg *types.MsgSetDelegate) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	payer, err := parseAddress("payer", msg.Payer)
	if err != nil {
		return nil, err
	}
	delegate, err := parseAddress("delegate", msg.Delegate)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.SetDelegate(goCtx, payer, delegate, msg.Authorized); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

func (ms msgServer) WithdrawTreasury(goCtx context.Context, msg *types.MsgWithdrawTreasury) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	recipient, err := parseAddress("recipient", msg.Recipient)
	if err != nil {
		return nil, err
	}
	if err := ms.Keeper.WithdrawTreasury(goCtx, msg.Authority, recipient, msg.Denom, msg.Amount); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}

// UpdateParams handles governance parameter changes
func (ms msgServer) UpdateParams(goCtx context.Context, msg *types.MsgUpdateParams) (*types.MsgEmptyResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if err := ms.Keeper.UpdateParams(goCtx, msg.Authority, msg.Params); err != nil {
		return nil, err
	}
	return &types.MsgEmptyResponse{}, nil
}
