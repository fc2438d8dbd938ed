package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/examsafe/examsafe/internal/app/controllers"
	"github.com/examsafe/examsafe/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	examController *controllers.ExamController,
	systemController *controllers.SystemController,
	sessionMiddleware *middleware.SessionMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/session", authController.CreateSession)
	}

	// The status notification is public so clients can keep polling it while
	// establishing a session.
	v1.GET("/status", systemController.GetStatus)

	// --- Session-bound routes ---
	authenticated := v1.Group("")
	authenticated.Use(sessionMiddleware.RequireSession())
	{
		exams := authenticated.Group("/exams")
		{
			exams.GET("", examController.ListExams)
			exams.POST("", examController.CreateExam)
			exams.POST("/:id/decrypt", examController.DecryptExam)
			exams.GET("/stats", examController.GetStats)
			exams.GET("/leaderboard", examController.GetLeaderboard)
		}

		authenticated.GET("/ledger/availability", systemController.CheckAvailability)
	}
}
