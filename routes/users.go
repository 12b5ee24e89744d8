package routes

import (
	"vitalis-backend/handlers/users"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func UsersRoutes(r *gin.Engine) {
	profileRoutes := r.Group("/profile")
	profileRoutes.Use(middleware.JWTAuth())
	{
		profileRoutes.GET("", users.GetProfile)
		profileRoutes.PUT("", users.UpdateProfile)
	}
}
