package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	"github.com/paw-chain/settlement/x/settlement/types"
)

// ==================== Host queries ====================

func (s *Server) handleListHosts(c *gin.Context) {
	offset, limit, err := s.page(c)
	if err != nil {
		badRequest(c, "Invalid pagination", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		hosts, total, err := s.app.SettlementKeeper.ListActiveHosts(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		return PageResponse{Items: hosts, Total: total, Offset: offset, Limit: limit}, nil
	})
}

func (s *Server) handleListHostsForModel(c *gin.Context) {
	offset, limit, err := s.page(c)
	if err != nil {
		badRequest(c, "Invalid pagination", err)
		return
	}
	modelID := c.Param("model_id")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		hosts, total, err := s.app.SettlementKeeper.ListHostsForModel(ctx, modelID, offset, limit)
		if err != nil {
			return nil, err
		}
		return PageResponse{Items: hosts, Total: total, Offset: offset, Limit: limit}, nil
	})
}

func (s *Server) handleGetHost(c *gin.Context) {
	host, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid host address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetHost(ctx, host)
	})
}

func (s *Server) handleGetHostPrices(c *gin.Context) {
	host, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid host address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		if _, err := s.app.SettlementKeeper.GetHost(ctx, host); err != nil {
			return nil, err
		}
		return s.app.SettlementKeeper.ListModelPrices(ctx, host)
	})
}

func (s *Server) handleGetHostSlashes(c *gin.Context) {
	host, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid host address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetSlashRecords(ctx, host)
	})
}

func (s *Server) handleGetHostEarnings(c *gin.Context) {
	host, err := pathAddress(c, "address")
	if err != nil {
		badRequest(c, "Invalid host address", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.SettlementKeeper.GetAllEarnings(ctx, host)
	})
}

// ==================== Host transactions ====================

func (s *Server) handleRegisterHost() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgRegisterHost,
		func(_ *gin.Context, msg *types.MsgRegisterHost, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.RegisterHost,
	)
}

func (s *Server) handleUnregisterHost() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUnregisterHost,
		func(_ *gin.Context, msg *types.MsgUnregisterHost, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.UnregisterHost,
	)
}

func (s *Server) handleUpdatePricing() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUpdatePricing,
		func(_ *gin.Context, msg *types.MsgUpdatePricing, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.UpdatePricing,
	)
}

func (s *Server) handleSetModelPricing() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgSetModelPricing,
		func(c *gin.Context, msg *types.MsgSetModelPricing, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			msg.ModelID = c.Param("model_id")
			return nil
		},
		s.msgServer.SetModelPricing,
	)
}

func (s *Server) handleClearModelPricing() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgClearModelPricing,
		func(c *gin.Context, msg *types.MsgClearModelPricing, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			msg.ModelID = c.Param("model_id")
			msg.Class = types.AssetClass(c.Param("class"))
			return msg.Class.Validate()
		},
		s.msgServer.ClearModelPricing,
	)
}

func (s *Server) handleUpdateMetadata() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUpdateMetadata,
		func(_ *gin.Context, msg *types.MsgUpdateMetadata, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.UpdateMetadata,
	)
}

func (s *Server) handleUpdateEndpoint() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUpdateEndpoint,
		func(_ *gin.Context, msg *types.MsgUpdateEndpoint, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.UpdateEndpoint,
	)
}

func (s *Server) handleUpdateSupportedModels() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgUpdateSupportedModels,
		func(_ *gin.Context, msg *types.MsgUpdateSupportedModels, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.UpdateSupportedModels,
	)
}

func (s *Server) handleAddStake() gin.HandlerFunc {
	return msgHandler(s, types.TypeMsgAddStake,
		func(_ *gin.Context, msg *types.MsgAddStake, caller sdk.AccAddress) error {
			msg.Host = caller.String()
			return nil
		},
		s.msgServer.AddStake,
	)
}
