package users

import (
	"net/http"

	"vitalis-backend/db"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
)

// @Summary Get the connected user's profile
// @Description Return the health profile of the connected user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: User not found"
// @Router /profile [get]
func GetProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "User not found in GetProfile")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, user)
}

// @Summary Update the connected user's profile
// @Description Update the health profile fields of the connected user
// @Tags users
// @Accept json
// @Produce json
// @Param profile body models.UserProfileUpdate true "Profile fields"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Profile updated"
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /profile [put]
func UpdateProfile(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.UserProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	updates := map[string]interface{}{
		"first_name":         input.FirstName,
		"last_name":          input.LastName,
		"age":                input.Age,
		"sex":                input.Sex,
		"medical_conditions": input.MedicalConditions,
		"medications":        input.Medications,
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating the profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating the profile"})
		return
	}

	utils.LogSuccessWithUser(userID, "Profile updated")
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
