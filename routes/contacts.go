package routes

import (
	"vitalis-backend/handlers/contacts"
	"vitalis-backend/middleware"

	"github.com/gin-gonic/gin"
)

func ContactsRoutes(r *gin.Engine) {
	r.POST("/contact", contacts.CreateContact)
	r.GET("/contacts", middleware.JWTAuth(), middleware.AdminAuth(), contacts.GetAllContacts)
}
