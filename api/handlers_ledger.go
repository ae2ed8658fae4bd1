package api

import (
	"net/http"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/paw-chain/settlement/x/settlement/types"
)

func (s *Server) handleGetBalances(c *gin.Context) {
	addr, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.BankKeeper.GetAllBalances(ctx, addr), nil
	})
}

func (s *Server) handleGetTreasury(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetAllTreasury(ctx)
	})
}

func (s *Server) handleGetParams(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetParams(ctx)
	})
}

func (s *Server) handleGetDelegation(c *gin.Context) {
	payer, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid payer address", err)
		return
	}
	delegate, err := pathAddress(c, "delegate")
	if err != nil {
		badRequest(c, "Invalid delegate address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return DelegationResponse{
			Payer:      payer.String(),
			Delegate:   delegate.String(),
			Authorized: s.app.SettlementKeeper.IsAuthorizedDelegate(ctx, payer, delegate),
		}, nil
	})
}

// handleGetAudit pages the audit trail from the from sequence, inclusive
func (s *Server) handleGetAudit(c *gin.Context) {
	from, err := cast.ToUint64E(c.DefaultQuery("from", "1"))
	if err != nil {
		badRequest(c, "Invalid from sequence", err)
		return
	}
	_, limit, err := s.page(c)
	if err != nil {
		badRequest(c, "Invalid pagination", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		records, err := s.app.SettlementKeeper.GetAuditRecords(ctx, from, int(limit))
		if err != nil {
			return nil, err
		}
		return AuditResponse{Records: records, NextSeq: s.app.SettlementKeeper.NextAuditSeq(ctx)}, nil
	})
}

// handleWithdrawEarnings withdraws one denom, or all when none is named
func (s *Server) handleWithdrawEarnings(c *gin.Context) {
	var req WithdrawRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	host := callerAddress(c).String()
	if req.Denom == "" {
		msg := &types.MsgWithdrawAllEarnings{Host: host}
		s.deliver(c, types.TypeMsgWithdrawAllEarnings, func(ctx sdk.Context) (interface{}, error) {
			return s.msgServer.WithdrawAllEarnings(ctx, msg)
		})
		return
	}
	msg := &types.MsgWithdrawEarnings{Host: host, Denom: req.Denom}
	s.deliver(c, types.TypeMsgWithdrawEarnings, func(ctx sdk.Context) (interface{}, error) {
		return s.msgServer.WithdrawEarnings(ctx, msg)
	})
}

func (s *Server) handleSetDelegate(c *gin.Context) {
	var req DelegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	msg := &types.MsgSetDelegate{
		Payer:      callerAddress(c).String(),
		Delegate:   c.Param("delegate"),
		Authorized: *req.Authorized,
	}
	s.deliver(c, types.TypeMsgSetDelegate, func(ctx sdk.Context) (interface{}, error) {
		return s.msgServer.SetDelegate(ctx, msg)
	})
}

// handleFaucet drips test tokens to the requested address
func (s *Server) handleFaucet(c *gin.Context) {
	var req FaucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	recipient, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		badRequest(c, "Invalid address", err)
		return
	}
	res, err := s.app.Faucet(c.Request.Context(), recipient)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TxResponse{Height: res.Height, Time: res.Time, Events: res.Events})
}
