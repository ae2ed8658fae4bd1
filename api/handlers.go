package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const defaultPageSize = 20

// deliver runs fn as one transaction and renders its result
func (s *Server) deliver(c *gin.Context, op string, fn func(ctx sdk.Context) (interface{}, error)) {
	var result interface{}
	res, err := s.app.Deliver(c.Request.Context(), op, func(ctx sdk.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TxResponse{
		Height: res.Height,
		Time:   res.Time,
		Result: result,
		Events: res.Events,
	})
}

// query runs fn against committed state and renders its result
func (s *Server) query(c *gin.Context, fn func(ctx sdk.Context) (interface{}, error)) {
	var result interface{}
	err := s.app.Query(c.Request.Context(), func(ctx sdk.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// msgHandler binds the request body into a message, lets prepare fill the
// signer and path fields, and delivers it through call.
func msgHandler[M any, R any](
	s *Server,
	op string,
	prepare func(c *gin.Context, msg *M, caller sdk.AccAddress) error,
	call func(ctx context.Context, msg *M) (R, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg M
		if err := bindOptionalJSON(c, &msg); err != nil {
			badRequest(c, "Invalid request body", err)
			return
		}
		if err := prepare(c, &msg, callerAddress(c)); err != nil {
			badRequest(c, "Invalid request", err)
			return
		}
		s.deliver(c, op, func(ctx sdk.Context) (interface{}, error) {
			return call(ctx, &msg)
		})
	}
}

// bindOptionalJSON decodes the body when one is present
func bindOptionalJSON(c *gin.Context, out interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func pathAddress(c *gin.Context, param string) (sdk.AccAddress, error) {
	addr, err := sdk.AccAddressFromBech32(c.Param(param))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", param, err)
	}
	return addr, nil
}

func pathSessionID(c *gin.Context) (uint64, error) {
	id, err := cast.ToUint64E(c.Param("id"))
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid session id %q", c.Param("id"))
	}
	return id, nil
}

// page reads offset and limit query parameters, clamping limit to the
// configured maximum.
func (s *Server) page(c *gin.Context) (uint64, uint64, error) {
	offset, err := cast.ToUint64E(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset: %w", err)
	}
	limit, err := cast.ToUint64E(c.DefaultQuery("limit", cast.ToString(defaultPageSize)))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid limit: %w", err)
	}
	if limit == 0 || limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	return offset, limit, nil
}

// handleStatus reports the executor's chain position
func (s *Server) handleStatus(c *gin.Context) {
	if !s.app.Initialized() {
		abortWithError(c, http.StatusServiceUnavailable, "NOT_INITIALIZED", "chain not initialized", "")
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		ChainID:       s.app.ChainID(),
		Height:        s.app.LastHeight(),
		LastBlockTime: s.app.LastBlockTime(),
	})
}

// handleWhoAmI echoes the authenticated caller
func (s *Server) handleWhoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"address": callerAddress(c).String()})
}
