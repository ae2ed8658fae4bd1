package api

import (
	"errors"
	"net/http"

	govtypes "github.com/cosmos/cosmos-sdk/x/gov/types"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/app/telemetry"
	"github.com/paw-chain/settlement/x/settlement/types"
	whitelisttypes "github.com/paw-chain/settlement/x/whitelist/types"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Category  string `json:"category,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusOf maps an executor error to an HTTP status and machine code
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrSessionNotFound), errors.Is(err, types.ErrHostNotFound),
		errors.Is(err, whitelisttypes.ErrModelNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, whitelisttypes.ErrInvalidModelID):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, whitelisttypes.ErrModelExists):
		return http.StatusConflict, "STATE"
	case errors.Is(err, govtypes.ErrInvalidSigner):
		return http.StatusForbidden, "AUTHORIZATION"
	case errors.Is(err, app.ErrFaucetDisabled):
		return http.StatusForbidden, "FAUCET_DISABLED"
	case errors.Is(err, app.ErrFaucetLimit):
		return http.StatusTooManyRequests, "FAUCET_LIMIT"
	case errors.Is(err, app.ErrNotInitiated):
		return http.StatusServiceUnavailable, "NOT_INITIALIZED"
	}

	switch types.CategoryOf(err) {
	case types.CategoryAuthorization:
		return http.StatusForbidden, "AUTHORIZATION"
	case types.CategoryValidation:
		return http.StatusBadRequest, "VALIDATION"
	case types.CategoryState:
		return http.StatusConflict, "STATE"
	case types.CategoryReplay:
		return http.StatusConflict, "REPLAY"
	case types.CategoryEconomic:
		return http.StatusUnprocessableEntity, "ECONOMIC"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError renders err with the status its category maps to
func writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	telemetry.RecordError(trace.SpanFromContext(c.Request.Context()), err)

	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: c.GetString(requestIDKey),
	}
	if category := types.CategoryOf(err); category != types.CategoryInternal {
		resp.Category = string(category)
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}

// badRequest rejects a malformed request before it reaches the executor
func badRequest(c *gin.Context, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	abortWithError(c, http.StatusBadRequest, "VALIDATION", message, details)
}

func abortWithError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: c.GetString(requestIDKey),
	})
}
