package routes

import (
	"vitalis-backend/handlers/chat"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func ChatRoutes(r *gin.Engine) {
	chatRoutes := r.Group("/chat")
	chatRoutes.Use(middleware.JWTAuth())
	{
		chatRoutes.POST("", chat.SendMessage)
		chatRoutes.GET("/conversations", chat.GetConversations)
		chatRoutes.GET("/conversations/:id", chat.GetConversationMessages)
	}
}
