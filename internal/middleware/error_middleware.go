package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsafe/examsafe/internal/app/models/dto"
	"github.com/examsafe/examsafe/internal/pkg/apperrors"
)

// HandleAPIError maps workflow and client errors to API error responses.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNoSession):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "No active wallet session")))
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Session token expired")))
	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid session token")))
	case errors.Is(err, apperrors.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidAddress, "Invalid account address")))
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed")))
	case errors.Is(err, apperrors.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Exam record not found")))
	case errors.Is(err, apperrors.ErrOperationInFlight):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeOperationInFlight, "Operation already in flight")))
	case errors.Is(err, apperrors.ErrEngineInitializing):
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeEngineInitializing, "Encryption engine is initializing")))
	case errors.Is(err, apperrors.ErrInitializationFailed), errors.Is(err, apperrors.ErrEngineNotInitialized):
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeEngineInitFailed, "Encryption engine initialization failed")))
	case errors.Is(err, apperrors.ErrUserRejected):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeTransactionRejected, "Transaction rejected by signer")))
	case errors.Is(err, apperrors.ErrLedgerUnavailable):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeLedgerUnavailable, "Ledger unavailable")))
	case errors.Is(err, apperrors.ErrOracleFailed):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeOracleFailed, "Decryption oracle round trip failed")))
	case errors.Is(err, apperrors.ErrTransactionFailed):
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeTransactionFailed, "Ledger transaction failed").WithDetails(err.Error())))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
