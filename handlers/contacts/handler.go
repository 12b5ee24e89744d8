package contacts

import (
	"net/http"
	"time"

	"vitalis-backend/db"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
)

// @Summary Submit a support request
// @Description Create a support/contact request from the app
// @Tags contacts
// @Accept json
// @Produce json
// @Param contact body models.Contact true "Contact information"
// @Success 201 {object} map[string]interface{} "message: Contact request submitted successfully, id"
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 500 {object} map[string]string "error: Error message"
// @Router /contact [post]
func CreateContact(c *gin.Context) {
	var contact models.Contact

	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	contact.SubmittedAt = time.Now()

	if err := db.DB.Create(&contact).Error; err != nil {
		utils.LogError(err, "Error creating the contact request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	utils.LogSuccess("Contact request submitted")
	c.JSON(http.StatusCreated, gin.H{
		"message": "Contact request submitted successfully",
		"id":      contact.ID,
	})
}

// @Summary List support requests
// @Description Return all support requests, newest first (admin only)
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Contact
// @Failure 500 {object} map[string]string "error: Error message"
// @Router /contacts [get]
func GetAllContacts(c *gin.Context) {
	var contacts []models.Contact

	if err := db.DB.Order("submitted_at DESC").Find(&contacts).Error; err != nil {
		utils.LogError(err, "Error fetching the contact requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, contacts)
}
