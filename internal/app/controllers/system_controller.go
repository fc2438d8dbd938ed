package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsafe/examsafe/internal/app/models/dto"
	"github.com/examsafe/examsafe/internal/app/services"
	"github.com/examsafe/examsafe/internal/middleware"
)

// SystemController exposes availability probing and the status notification
type SystemController struct {
	workflow *services.WorkflowService
}

// NewSystemController creates a new SystemController
func NewSystemController(workflow *services.WorkflowService) *SystemController {
	return &SystemController{
		workflow: workflow,
	}
}

// CheckAvailability probes the ledger contract
// @Summary Check system availability
// @Description Probes whether the ledger contract responds to queries.
// @Tags system
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AvailabilityResponse} "Probe result"
// @Failure 502 {object} dto.ErrorResponse "Ledger unavailable"
// @Router /ledger/availability [get]
func (c *SystemController) CheckAvailability(ctx *gin.Context) {
	available, err := c.workflow.CheckAvailability(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.AvailabilityResponse{Available: available}))
}

// GetStatus returns the current transaction-status notification
// @Summary Current status notification
// @Description Returns the transient operation notification with its generation counter and expiry. Consumers clear on expiry themselves.
// @Tags system
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.TransactionStatus} "Current notification"
// @Router /status [get]
func (c *SystemController) GetStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.workflow.Status()))
}
