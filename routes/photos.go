package routes

import (
	"vitalis-backend/handlers/photos"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func PhotosRoutes(r *gin.Engine) {
	photoRoutes := r.Group("/photo-sessions")
	photoRoutes.Use(middleware.JWTAuth())
	{
		photoRoutes.POST("", photos.CreateSession)
		photoRoutes.GET("", photos.GetSessions)
		photoRoutes.GET("/:id", photos.GetSession)
		photoRoutes.POST("/:id/entries", photos.AddEntry)
		photoRoutes.DELETE("/:id", photos.DeleteSession)
	}
}
