package main

import (
	"log"

	"vitalis-backend/db"
	_ "vitalis-backend/docs"
	"vitalis-backend/routes"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
)

// @title Vitalis API
// @version 1.0
// @description Backend API for the Vitalis health assessment platform
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the JWT with the Bearer prefix: Bearer <JWT>
func main() {

	gin.SetMode(gin.ReleaseMode)

	db.InitDB()

	if err := utils.InitCloudinary(); err != nil {
		log.Printf("Warning: Cloudinary initialization failed: %v", err)
		log.Println("Photo uploads will not work correctly.")
	}

	r := routes.SetupRouter()

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Error starting the server:", err)
	}
}
