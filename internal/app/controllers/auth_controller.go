package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/examsafe/examsafe/internal/app/models/dto"
	"github.com/examsafe/examsafe/internal/pkg/auth"
	"github.com/examsafe/examsafe/internal/pkg/ethaddr"
)

// AuthController handles wallet-session establishment
type AuthController struct {
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(jwtService *auth.JWTService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		jwtService: jwtService,
		logger:     logger,
	}
}

// CreateSession establishes a wallet session for an account address
// @Summary Establish wallet session
// @Description Issues a session token bound to the given account address. Mixed-case addresses must carry a valid EIP-55 checksum.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Account address"
// @Success 201 {object} dto.APIResponse{data=dto.SessionResponse} "Session established"
// @Failure 400 {object} dto.ErrorResponse "Invalid address"
// @Router /auth/session [post]
func (c *AuthController) CreateSession(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid session request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if !ethaddr.IsValid(req.Address) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidAddress, "Invalid account address")
		errorDetail = errorDetail.WithField("address")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	address := ethaddr.Normalize(req.Address)
	token, sessionID, expiresIn, err := c.jwtService.GenerateSessionToken(address)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to issue session token")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Failed to establish session")
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
		return
	}

	c.logger.Info().Str("address", address).Str("sessionId", sessionID).Msg("Wallet session established")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.SessionResponse{
		Token:     token,
		SessionID: sessionID,
		Address:   address,
		ExpiresIn: expiresIn,
	}))
}
