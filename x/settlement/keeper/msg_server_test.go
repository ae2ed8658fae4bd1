package keeper_test

import (
	"encoding/hex"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/x/settlement/keeper"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestMsgServer_SessionLifecycle(t *testing.T) {
	env := setupEnv(t)
	srv := keeper.NewMsgServerImpl(*env.Keeper)

	_, err := srv.RegisterHost(env.Ctx, &types.MsgRegisterHost{
		Host:           env.host.String(),
		Endpoint:       "https://host.example/v1",
		ModelIDs:       []string{modelLlama},
		MinPriceNative: hostMinNative,
		MinPriceStable: hostMinStable,
	})
	require.NoError(t, err)

	created, err := srv.CreateSession(env.Ctx, &types.MsgCreateSession{
		Depositor: env.depositor.String(),
		Terms:     env.terms(),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), created.SessionID)

	proof, err := srv.SubmitProof(env.Ctx, &types.MsgSubmitProof{
		Host:         env.host.String(),
		SessionID:    created.SessionID,
		UnitsClaimed: 300,
		ProofHash:    "0x" + hex.EncodeToString(digest("msg-1")),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(300), proof.ProvenUnits)
	require.Equal(t, uint64(1), proof.ProofCount)

	settled, err := srv.CompleteSession(env.Ctx, &types.MsgCompleteSession{
		Caller:    env.depositor.String(),
		SessionID: created.SessionID,
	})
	require.NoError(t, err)
	require.True(t, settled.Settlement.Payment.Equal(math.NewInt(600_000)))
	require.True(t, settled.Settlement.Total().Equal(math.NewInt(1_000_000)))

	withdrawn, err := srv.WithdrawAllEarnings(env.Ctx, &types.MsgWithdrawAllEarnings{Host: env.host.String()})
	require.NoError(t, err)
	require.True(t, withdrawn.Amount.AmountOf(stableDenom).Equal(settled.Settlement.HostPayout))

	unregistered, err := srv.UnregisterHost(env.Ctx, &types.MsgUnregisterHost{Host: env.host.String()})
	require.NoError(t, err)
	require.True(t, unregistered.StakeReturned.IsPositive())
	env.requireSolvent(t)
}

func TestMsgServer_RejectsMalformedMessages(t *testing.T) {
	env := setupWithHost(t)
	srv := keeper.NewMsgServerImpl(*env.Keeper)

	_, err := srv.CreateSession(env.Ctx, &types.MsgCreateSession{Depositor: "not-an-address", Terms: env.terms()})
	require.ErrorIs(t, err, types.ErrInvalidAddress)

	_, err = srv.SubmitProof(env.Ctx, &types.MsgSubmitProof{
		Host:         env.host.String(),
		SessionID:    1,
		UnitsClaimed: 100,
		ProofHash:    "zz",
	})
	require.ErrorIs(t, err, types.ErrInvalidProofHash)

	_, err = srv.UpdateParams(env.Ctx, &types.MsgUpdateParams{
		Authority: env.stranger.String(),
		Params:    types.DefaultParams(),
	})
	require.ErrorIs(t, err, types.ErrInvalidAuthority)
}

func TestMsgServer_DelegatedSession(t *testing.T) {
	env := setupWithHost(t)
	srv := keeper.NewMsgServerImpl(*env.Keeper)

	_, err := srv.SetDelegate(env.Ctx, &types.MsgSetDelegate{
		Payer:      env.depositor.String(),
		Delegate:   env.stranger.String(),
		Authorized: true,
	})
	require.NoError(t, err)

	res, err := srv.CreateSessionForPayer(env.Ctx, &types.MsgCreateSessionForPayer{
		Creator: env.stranger.String(),
		Payer:   env.depositor.String(),
		Terms:   env.terms(),
	})
	require.NoError(t, err)

	s, err := env.Keeper.GetSession(env.Ctx, res.SessionID)
	require.NoError(t, err)
	require.Equal(t, env.depositor.String(), s.Depositor)
	require.Equal(t, env.stranger.String(), s.Creator)
	require.True(t, env.Balance(env.depositor, stableDenom).Equal(startingFunds.Sub(math.NewInt(1_000_000))))
	require.True(t, env.Balance(env.stranger, stableDenom).Equal(startingFunds))

	_, err = srv.TriggerTimeout(env.Ctx, &types.MsgTriggerTimeout{Caller: env.stranger.String(), SessionID: res.SessionID})
	require.ErrorIs(t, err, types.ErrTimeoutNotReached)
}
