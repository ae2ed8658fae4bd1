package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	"github.com/paw-chain/settlement/x/settlement/types"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

// Admin routes are open to any authenticated caller; the keepers reject every
// caller other than the configured authority.

func (s *Server) handleUpdateParams() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUpdateParams,
		func(_ *gin.Context, msg *types.MsgUpdateParams, caller sdk.AccAddress) error {
			msg.Authority = caller.String()
			return nil
		},
		s.msgServer.UpdateParams,
	)
}

func (s *Server) handleSlashHost() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgSlashHost,
		func(c *gin.Context, msg *types.MsgSlashHost, caller sdk.AccAddress) error {
			msg.Authority = caller.String()
			msg.Host = c.Param("address")
			return nil
		},
		s.msgServer.SlashHost,
	)
}

func (s *Server) handleWithdrawTreasury() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgWithdrawTreasury,
		func(_ *gin.Context, msg *types.MsgWithdrawTreasury, caller sdk.AccAddress) error {
			msg.Authority = caller.String()
			return nil
		},
		s.msgServer.WithdrawTreasury,
	)
}

func (s *Server) handleListModels(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.WhitelistKeeper.ListModels(ctx)
	})
}

func (s *Server) handleGetModel(c *gin.Context) {
	modelID := c.Param("model_id")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.WhitelistKeeper.GetModel(ctx, modelID)
	})
}

func (s *Server) handleApproveModel(c *gin.Context) {
	var req ApproveModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	authority := callerAddress(c).String()
	model := whitelisttypes.ApprovedModel{ID: req.ID, Name: req.Name, ContentRef: req.ContentRef}
	s.deliver(c, "approve_model", func(ctx sdk.Context) (interface{}, error) {
		if err := s.app.WhitelistKeeper.ApproveModel(ctx, authority, model); err != nil {
			return nil, err
		}
		return s.app.WhitelistKeeper.GetModel(ctx, model.ID)
	})
}

func (s *Server) handleRevokeModel(c *gin.Context) {
	authority := callerAddress(c).String()
	modelID := c.Param("model_id")
	s.deliver(c, "revoke_model", func(ctx sdk.Context) (interface{}, error) {
		return nil, s.app.WhitelistKeeper.RevokeModel(ctx, authority, modelID)
	})
}
