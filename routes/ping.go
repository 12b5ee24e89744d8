package routes

import (
	"vitalis-backend/handlers/ping"

	"github.com/gin-gonic/gin"
)

func PingRoutes(r *gin.Engine) {
	pingHandler := ping.New()
	r.GET("/ping", pingHandler.HandlePing)
}
