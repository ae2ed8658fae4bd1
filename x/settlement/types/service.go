package types

import (
	"context"

	"cosmossdk.io/math"
)

// MsgEmptyResponse is returned by messages with no result beyond success.
type MsgEmptyResponse struct{}

// MsgUnregisterHostResponse carries the stake returned to the host.
type MsgUnregisterHostResponse struct {
	StakeReturned math.Int `json:"stake_returned"`
}

// MsgSlashHostResponse carries the stored slash record.
type MsgSlashHostResponse struct {
	Record SlashRecord `json:"record"`
}

// MsgServer is the transaction surface of the settlement module.
type MsgServer interface {
	RegisterHost(context.Context, *MsgRegisterHost) (*MsgEmptyResponse, error)
	UpdatePricing(context.Context, *MsgUpdatePricing) (*MsgEmptyResponse, error)
	SetModelPricing(context.Context, *MsgSetModelPricing) (*MsgEmptyResponse, error)
	ClearModelPricing(context.Context, *MsgClearModelPricing) (*MsgEmptyResponse, error)
	UpdateMetadata(context.Context, *MsgUpdateMetadata) (*MsgEmptyResponse, error)
	UpdateEndpoint(context.Context, *MsgUpdateEndpoint) (*MsgEmptyResponse, error)
	UpdateSupportedModels(context.Context, *MsgUpdateSupportedModels) (*MsgEmptyResponse, error)
	AddStake(context.Context, *MsgAddStake) (*MsgEmptyResponse, error)
	UnregisterHost(context.Context, *MsgUnregisterHost) (*MsgUnregisterHostResponse, error)
	SlashHost(context.Context, *MsgSlashHost) (*MsgSlashHostResponse, error)
	CreateSession(context.Context, *MsgCreateSession) (*MsgCreateSessionResponse, error)
	CreateSessionForPayer(context.Context, *MsgCreateSessionForPayer) (*MsgCreateSessionResponse, error)
	SubmitProof(context.Context, *MsgSubmitProof) (*MsgSubmitProofResponse, error)
	CompleteSession(context.Context, *MsgCompleteSession) (*MsgSettleResponse, error)
	TriggerTimeout(context.Context, *MsgTriggerTimeout) (*MsgSettleResponse, error)
	WithdrawEarnings(context.Context, *MsgWithdrawEarnings) (*MsgWithdrawResponse, error)
	WithdrawAllEarnings(context.Context, *MsgWithdrawAllEarnings) (*MsgWithdrawResponse, error)
	SetDelegate(context.Context, *MsgSetDelegate) (*MsgEmptyResponse, error)
	WithdrawTreasury(context.Context, *MsgWithdrawTreasury) (*MsgEmptyResponse, error)
	UpdateParams(context.Context, *MsgUpdateParams) (*MsgEmptyResponse, error)
}
