package photos

import (
	"net/http"

	"vitalis-backend/db"
	"vitalis-backend/handlers/stripe"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	ConditionName string `json:"condition_name" binding:"required"`
	Description   string `json:"description"`
}

// @Summary Create a photo tracking session
// @Description Open a session grouping photos of one condition over time
// @Tags photos
// @Accept json
// @Produce json
// @Param session body sessionRequest true "Condition to track"
// @Security BearerAuth
// @Success 201 {object} models.PhotoSession
// @Failure 403 {object} map[string]interface{} "error: Monthly limit reached"
// @Router /photo-sessions [post]
func CreateSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	uid, _ := userID.(string)

	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tier := stripe.CurrentTier(userID)
	limits := stripe.LimitsForTier(tier)
	usage := stripe.MonthlyUsage(userID)
	if limits.PhotoSessions >= 0 && usage.PhotoSessions >= int64(limits.PhotoSessions) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Monthly photo session limit reached for your plan",
			"tier":  tier,
			"limit": limits.PhotoSessions,
			"used":  usage.PhotoSessions,
		})
		return
	}

	session := models.PhotoSession{
		UserID:        uid,
		ConditionName: req.ConditionName,
		Description:   req.Description,
	}
	if err := db.DB.Create(&session).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error creating the photo session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating the photo session"})
		return
	}

	utils.LogSuccessWithUser(userID, "Photo session created")
	c.JSON(http.StatusCreated, session)
}

// @Summary List the user's photo sessions
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PhotoSession
// @Router /photo-sessions [get]
func GetSessions(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var sessions []models.PhotoSession
	if err := db.DB.Preload("Entries").Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// @Summary Get one photo session with its entries
// @Tags photos
// @Produce json
// @Param id path string true "Session ID"
// @Security BearerAuth
// @Success 200 {object} models.PhotoSession
// @Failure 404 {object} map[string]string "error: Session not found"
// @Router /photo-sessions/{id} [get]
func GetSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var session models.PhotoSession
	if err := db.DB.Preload("Entries").First(&session, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This session does not belong to you"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary Add a photo to a session
// @Description Upload one condition photo (multipart field "photo") with optional notes
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param photo formData file true "Photo file"
// @Param notes formData string false "Notes"
// @Security BearerAuth
// @Success 201 {object} models.PhotoEntry
// @Failure 400 {object} map[string]string "error: Invalid photo"
// @Failure 404 {object} map[string]string "error: Session not found"
// @Router /photo-sessions/{id}/entries [post]
func AddEntry(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var session models.PhotoSession
	if err := db.DB.First(&session, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This session does not belong to you"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A photo file is required"})
		return
	}

	photoURL, publicID, err := utils.UploadConditionPhoto(file, session.ID)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error uploading the condition photo")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := models.PhotoEntry{
		SessionID:       session.ID,
		PhotoURL:        photoURL,
		StoragePublicId: publicID,
		Notes:           c.PostForm("notes"),
	}
	if err := db.DB.Create(&entry).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the photo entry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the photo entry"})
		return
	}

	utils.LogSuccessWithUser(userID, "Photo added to session "+session.ID)
	c.JSON(http.StatusCreated, entry)
}

// @Summary Delete a photo session
// @Description Remove a session and all its entries
// @Tags photos
// @Produce json
// @Param id path string true "Session ID"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Session deleted"
// @Failure 404 {object} map[string]string "error: Session not found"
// @Router /photo-sessions/{id} [delete]
func DeleteSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var session models.PhotoSession
	if err := db.DB.First(&session, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This session does not belong to you"})
		return
	}

	if err := db.DB.Where("session_id = ?", session.ID).Delete(&models.PhotoEntry{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting the photo entries"})
		return
	}
	if err := db.DB.Delete(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting the session"})
		return
	}

	utils.LogSuccessWithUser(userID, "Photo session deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
