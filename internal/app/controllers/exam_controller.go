package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examsafe/examsafe/internal/app/models/dto"
	"github.com/examsafe/examsafe/internal/app/services"
	"github.com/examsafe/examsafe/internal/middleware"
)

// defaultLeaderboardSize matches the number of top scores shown by clients.
const defaultLeaderboardSize = 5

// ExamController exposes the confidential exam score workflow
type ExamController struct {
	workflow *services.WorkflowService
}

// NewExamController creates a new ExamController
func NewExamController(workflow *services.WorkflowService) *ExamController {
	return &ExamController{
		workflow: workflow,
	}
}

// ListExams returns the loaded exam records
// @Summary List exam records
// @Description Returns the cached exam records and derived statistics. Pass refresh=true to rebuild the cache from the ledger first.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Reload records from the ledger"
// @Success 200 {object} dto.APIResponse{data=dto.ExamListResponse} "Records retrieved"
// @Failure 401 {object} dto.ErrorResponse "No active session"
// @Failure 502 {object} dto.ErrorResponse "Ledger unavailable"
// @Router /exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	if refresh, _ := strconv.ParseBool(ctx.Query("refresh")); refresh {
		sess := middleware.SessionFromContext(ctx)
		if _, err := c.workflow.LoadRecords(ctx.Request.Context(), sess); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ExamListResponse{
		Exams: c.workflow.Records(),
		Stats: c.workflow.Stats(),
	}))
}

// CreateExam submits a new confidential exam record
// @Summary Create exam record
// @Description Encrypts the score client-side of the ledger, submits the record transaction and awaits inclusion.
// @Tags exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateExamRequest true "Exam record"
// @Success 201 {object} dto.APIResponse{data=dto.CreateExamResponse} "Record created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "No active session"
// @Failure 409 {object} dto.ErrorResponse "Rejected by signer or operation in flight"
// @Failure 502 {object} dto.ErrorResponse "Ledger or relayer failure"
// @Router /exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req dto.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid exam data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	sess := middleware.SessionFromContext(ctx)
	id, err := c.workflow.CreateRecord(ctx.Request.Context(), sess, services.CreateRecordInput{
		Name:        req.Name,
		Description: req.Description,
		ScoreText:   req.Score,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.CreateExamResponse{ID: id}))
}

// DecryptExam runs the decrypt/verify round trip for a record
// @Summary Decrypt exam score
// @Description Returns the stored score for verified records; otherwise runs the oracle round trip and submits the correctness proof on-chain. The returned score is ephemeral until a refresh shows the record verified.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record id"
// @Success 200 {object} dto.APIResponse{data=dto.DecryptResponse} "Decryption outcome"
// @Failure 401 {object} dto.ErrorResponse "No active session"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 409 {object} dto.ErrorResponse "Decryption already in flight"
// @Failure 502 {object} dto.ErrorResponse "Oracle or ledger failure"
// @Router /exams/{id}/decrypt [post]
func (c *ExamController) DecryptExam(ctx *gin.Context) {
	recordID := ctx.Param("id")

	sess := middleware.SessionFromContext(ctx)
	outcome, err := c.workflow.RequestDecryption(ctx.Request.Context(), sess, recordID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.DecryptResponse{
		State:         string(outcome.Score.Kind),
		Authoritative: outcome.Score.Authoritative(),
		Raced:         outcome.Raced,
	}
	if outcome.Score.Known() {
		value := outcome.Score.Value
		resp.Score = &value
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetStats returns aggregate statistics
// @Summary Exam statistics
// @Description Returns count, verified count, and mean/max of verified scores.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Stats} "Statistics"
// @Router /exams/stats [get]
func (c *ExamController) GetStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.workflow.Stats()))
}

// GetLeaderboard returns the top verified scores
// @Summary Exam leaderboard
// @Description Returns the highest verified scores, best first.
// @Tags exams
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries" default(5)
// @Success 200 {object} dto.APIResponse{data=[]models.ExamRecord} "Leaderboard"
// @Router /exams/leaderboard [get]
func (c *ExamController) GetLeaderboard(ctx *gin.Context) {
	limit := defaultLeaderboardSize
	if raw := ctx.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(c.workflow.TopScores(limit)))
}
