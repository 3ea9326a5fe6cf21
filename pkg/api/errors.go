package api

import (
	"net/http"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/gin-gonic/gin"
)

var (
	ErrorMissingTokenJson         = gin.H{"error": "MISSING_TOKEN", "message": "Authorization bearer token required"}
	ErrorInvalidTokenJson         = gin.H{"error": "INVALID_TOKEN", "message": "Invalid or expired token"}
	ErrorInvalidRequestFormatJson = gin.H{"error": string(types.ErrInvalidArgument), "message": "Malformed request body"}
)

// StatusFor maps an error code to its HTTP status
func StatusFor(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidAmount,
		types.ErrInvalidGameType,
		types.ErrInvalidPlayerCount,
		types.ErrInvalidWinner,
		types.ErrWinnerMismatch,
		types.ErrInvalidWinnerColor,
		types.ErrFirstPlayerMismatch,
		types.ErrGameDataMismatch,
		types.ErrNotEnoughPlayers,
		types.ErrInvalidArgument:
		return http.StatusBadRequest
	case types.ErrInsufficientFunds:
		return http.StatusPaymentRequired
	case types.ErrNotAuthorized:
		return http.StatusForbidden
	case types.ErrGameNotFound:
		return http.StatusNotFound
	case types.ErrGameAlreadyExists,
		types.ErrAddressRetired,
		types.ErrGameFull,
		types.ErrPlayerAlreadyJoined:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) abortWithError(ctx *gin.Context, err error) {
	var gameErr *types.GameError
	if !types.As(err, &gameErr) {
		gameErr = types.WrapError(types.ErrInternalError, "Internal error", err)
	}

	status := StatusFor(gameErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", ctx.Request.Method, ctx.FullPath(), err)
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": string(gameErr.Code), "message": gameErr.Message})
}
