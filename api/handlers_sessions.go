package api

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// ==================== Session queries ====================

func (s *Server) handleGetSession(c *gin.Context) {
	id, err := pathSessionID(c)
	if err != nil {
		badRequest(c, "Invalid session id", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetSession(ctx, id)
	})
}

func (s *Server) handleGetSessionProofs(c *gin.Context) {
	id, err := pathSessionID(c)
	if err != nil {
		badRequest(c, "Invalid session id", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		if _, err := s.app.SettlementKeeper.GetSession(ctx, id); err != nil {
			return nil, err
		}
		return s.app.SettlementKeeper.GetProofSubmissions(ctx, id)
	})
}

// handleEstimateSettlement previews the split a completion would produce now.
// The as parameter selects the depositor (default) or host completion path.
func (s *Server) handleEstimateSettlement(c *gin.Context) {
	id, err := pathSessionID(c)
	if err != nil {
		badRequest(c, "Invalid session id", err)
		return
	}
	var asDepositor bool
	switch c.DefaultQuery("as", "depositor") {
	case "depositor":
		asDepositor = true
	case "host":
		asDepositor = false
	default:
		badRequest(c, "Invalid role", fmt.Errorf("as must be depositor or host"))
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.EstimateSettlement(ctx, id, asDepositor)
	})
}

func (s *Server) handleListAccountSessions(c *gin.Context) {
	addr, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid address", err)
		return
	}
	role := c.DefaultQuery("role", "depositor")
	if role != "depositor" && role != "host" {
		badRequest(c, "Invalid role", fmt.Errorf("role must be depositor or host"))
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		if role == "host" {
			return s.app.SettlementKeeper.ListSessionsByHost(ctx, addr)
		}
		return s.app.SettlementKeeper.ListSessionsByDepositor(ctx, addr)
	})
}

// ==================== Session transactions ====================

func (s *Server) handleCreateSession() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgCreateSession,
		func(_ *gin.Context, msg *types.MsgCreateSession, caller sdk.AccAddress) error {
			msg.Depositor = caller.String()
			return nil
		},
		s.msgServer.CreateSession,
	)
}

func (s *Server) handleCreateSessionForPayer() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgCreateSessionForPayer,
		func(_ *gin.Context, msg *types.MsgCreateSessionForPayer, caller sdk.AccAddress) error {
			msg.Creator = caller.String()
			return nil
		},
		s.msgServer.CreateSessionForPayer,
	)
}

func (s *Server) handleSubmitProof() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgSubmitProof,
		func(c *gin.Context, msg *types.MsgSubmitProof, caller sdk.AccAddress) error {
			id, err := pathSessionID(c)
			if err != nil {
				return err
			}
			msg.Host = caller.String()
			msg.SessionID = id
			return nil
		},
		s.msgServer.SubmitProof,
	)
}

func (s *Server) handleCompleteSession() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgCompleteSession,
		func(c *gin.Context, msg *types.MsgCompleteSession, caller sdk.AccAddress) error {
			id, err := pathSessionID(c)
			if err != nil {
				return err
			}
			msg.Caller = caller.String()
			msg.SessionID = id
			return nil
		},
		s.msgServer.CompleteSession,
	)
}

func (s *Server) handleTriggerTimeout() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgTriggerTimeout,
		func(c *gin.Context, msg *types.MsgTriggerTimeout, caller sdk.AccAddress) error {
			id, err := pathSessionID(c)
			if err != nil {
				return err
			}
			msg.Caller = caller.String()
			msg.SessionID = id
			return nil
		},
		s.msgServer.TriggerTimeout,
	)
}
