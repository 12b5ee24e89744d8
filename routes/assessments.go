package routes

import (
	"vitalis-backend/handlers/assessments"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func AssessmentsRoutes(r *gin.Engine) {
	assessmentRoutes := r.Group("/")
	assessmentRoutes.Use(middleware.JWTAuth())
	{
		assessmentRoutes.POST("/quick-scan", assessments.CreateQuickScan)
		assessmentRoutes.GET("/quick-scan/:id", assessments.GetQuickScan)
		assessmentRoutes.GET("/quick-scans", assessments.GetQuickScans)
		assessmentRoutes.POST("/deep-dive/start", assessments.StartDeepDive)
		assessmentRoutes.POST("/deep-dive/:id/complete", assessments.CompleteDeepDive)
		assessmentRoutes.GET("/deep-dives", assessments.GetDeepDives)
		assessmentRoutes.POST("/flash-assessment", assessments.CreateFlashAssessment)
	}
}
