package assessments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vitalis-backend/db"
	"vitalis-backend/handlers/stripe"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type quickScanRequest struct {
	BodyPart string                 `json:"body_part" binding:"required"`
	FormData map[string]interface{} `json:"form_data" binding:"required"`
}

type deepDiveStartRequest struct {
	BodyPart string                 `json:"body_part" binding:"required"`
	FormData map[string]interface{} `json:"form_data" binding:"required"`
}

type deepDiveCompleteRequest struct {
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

type flashRequest struct {
	Query string `json:"query" binding:"required"`
}

// limitReached answers 403 with the tier, the cap and the month's usage so
// the client can render an upgrade prompt.
func limitReached(c *gin.Context, feature string, tier models.SubscriptionTier, limit int, used int64) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":   "Monthly " + feature + " limit reached for your plan",
		"feature": feature,
		"tier":    tier,
		"limit":   limit,
		"used":    used,
	})
}

// recordUsage bumps the per-feature counter row for the current month.
func recordUsage(userID string, feature string) {
	since := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Now().Location())

	var row models.UsageTracking
	err := db.DB.
		Where("user_id = ? AND feature = ? AND period_start = ?", userID, feature, since).
		First(&row).Error

	if err == nil {
		db.DB.Model(&row).Update("count", gorm.Expr("count + 1"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogErrorWithUser(userID, err, "Error reading the usage counter")
		return
	}

	row = models.UsageTracking{
		UserID:      userID,
		Feature:     feature,
		Count:       1,
		PeriodStart: since,
	}
	if err := db.DB.Create(&row).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error creating the usage counter")
	}
}

// @Summary Run a quick scan
// @Description Analyze a symptom form for one body part and store the result
// @Tags assessments
// @Accept json
// @Produce json
// @Param scan body quickScanRequest true "Body part and symptom form"
// @Security BearerAuth
// @Success 201 {object} models.QuickScan
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 403 {object} map[string]interface{} "error: Monthly limit reached"
// @Failure 502 {object} map[string]string "error: Analysis backend unavailable"
// @Router /quick-scan [post]
func CreateQuickScan(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	uid, _ := userID.(string)

	var req quickScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tier := stripe.CurrentTier(userID)
	limits := stripe.LimitsForTier(tier)
	usage := stripe.MonthlyUsage(userID)
	if limits.QuickScans >= 0 && usage.QuickScans >= int64(limits.QuickScans) {
		limitReached(c, "quick scan", tier, limits.QuickScans, usage.QuickScans)
		return
	}

	result, err := utils.OracleQuickScan(uid, req.BodyPart, req.FormData)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Quick scan analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis backend unavailable"})
		return
	}

	formData, _ := json.Marshal(req.FormData)
	scan := models.QuickScan{
		UserID:     uid,
		BodyPart:   req.BodyPart,
		FormData:   string(formData),
		Analysis:   string(result.Analysis),
		Confidence: result.Confidence,
		Urgency:    models.UrgencyLevel(result.Urgency),
	}
	if err := db.DB.Create(&scan).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the quick scan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the quick scan"})
		return
	}

	recordUsage(uid, "quick_scan")
	utils.LogSuccessWithUser(userID, "Quick scan completed")
	c.JSON(http.StatusCreated, scan)
}

// @Summary Get one quick scan
// @Tags assessments
// @Produce json
// @Param id path string true "Quick scan ID"
// @Security BearerAuth
// @Success 200 {object} models.QuickScan
// @Failure 404 {object} map[string]string "error: Quick scan not found"
// @Router /quick-scan/{id} [get]
func GetQuickScan(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var scan models.QuickScan
	if err := db.DB.First(&scan, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quick scan not found"})
		return
	}
	if scan.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This quick scan does not belong to you"})
		return
	}

	c.JSON(http.StatusOK, scan)
}

// @Summary List the user's quick scans
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.QuickScan
// @Router /quick-scans [get]
func GetQuickScans(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var scans []models.QuickScan
	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scans)
}

// @Summary Start a deep dive session
// @Description Open a multi-step assessment; the response carries the first follow-up question
// @Tags assessments
// @Accept json
// @Produce json
// @Param dive body deepDiveStartRequest true "Body part and symptom form"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "id, question"
// @Failure 403 {object} map[string]interface{} "error: Monthly limit reached"
// @Failure 502 {object} map[string]string "error: Analysis backend unavailable"
// @Router /deep-dive/start [post]
func StartDeepDive(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	uid, _ := userID.(string)

	var req deepDiveStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tier := stripe.CurrentTier(userID)
	limits := stripe.LimitsForTier(tier)
	usage := stripe.MonthlyUsage(userID)
	if limits.DeepDives >= 0 && usage.DeepDives >= int64(limits.DeepDives) {
		limitReached(c, "deep dive", tier, limits.DeepDives, usage.DeepDives)
		return
	}

	session, err := utils.OracleDeepDiveStart(uid, req.BodyPart, req.FormData)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Deep dive start failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis backend unavailable"})
		return
	}

	dive := models.DeepDive{
		UserID:          uid,
		BodyPart:        req.BodyPart,
		OracleSessionId: session.SessionID,
		Status:          models.DeepDiveInProgress,
	}
	if err := db.DB.Create(&dive).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the deep dive")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the deep dive"})
		return
	}

	recordUsage(uid, "deep_dive")
	utils.LogSuccessWithUser(userID, "Deep dive started")
	c.JSON(http.StatusCreated, gin.H{
		"id":       dive.ID,
		"question": session.Question,
	})
}

// @Summary Complete a deep dive session
// @Description Send the collected answers and store the final analysis
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path string true "Deep dive ID"
// @Param answers body deepDiveCompleteRequest true "Collected answers"
// @Security BearerAuth
// @Success 200 {object} models.DeepDive
// @Failure 404 {object} map[string]string "error: Deep dive not found"
// @Failure 409 {object} map[string]string "error: Deep dive already completed"
// @Failure 502 {object} map[string]string "error: Analysis backend unavailable"
// @Router /deep-dive/{id}/complete [post]
func CompleteDeepDive(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req deepDiveCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var dive models.DeepDive
	if err := db.DB.First(&dive, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deep dive not found"})
		return
	}
	if dive.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This deep dive does not belong to you"})
		return
	}
	if dive.Status == models.DeepDiveCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Deep dive already completed"})
		return
	}

	result, err := utils.OracleDeepDiveComplete(dive.OracleSessionId, req.Answers)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Deep dive completion failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis backend unavailable"})
		return
	}

	updates := map[string]interface{}{
		"status":         models.DeepDiveCompleted,
		"final_analysis": string(result.Analysis),
		"confidence":     result.Confidence,
	}
	if err := db.DB.Model(&dive).Updates(updates).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the deep dive result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the deep dive result"})
		return
	}

	utils.LogSuccessWithUser(userID, "Deep dive completed")
	c.JSON(http.StatusOK, dive)
}

// @Summary List the user's deep dives
// @Tags assessments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DeepDive
// @Router /deep-dives [get]
func GetDeepDives(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var dives []models.DeepDive
	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&dives).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dives)
}

// @Summary Run a flash assessment
// @Description One-question free-text triage. Counts against the quick scan allowance.
// @Tags assessments
// @Accept json
// @Produce json
// @Param query body flashRequest true "Free-text question"
// @Security BearerAuth
// @Success 201 {object} models.FlashAssessment
// @Failure 403 {object} map[string]interface{} "error: Monthly limit reached"
// @Failure 502 {object} map[string]string "error: Analysis backend unavailable"
// @Router /flash-assessment [post]
func CreateFlashAssessment(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	uid, _ := userID.(string)

	var req flashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tier := stripe.CurrentTier(userID)
	limits := stripe.LimitsForTier(tier)
	usage := stripe.MonthlyUsage(userID)
	if limits.QuickScans >= 0 && usage.QuickScans >= int64(limits.QuickScans) {
		limitReached(c, "assessment", tier, limits.QuickScans, usage.QuickScans)
		return
	}

	result, err := utils.OracleFlashAssessment(uid, req.Query)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Flash assessment failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis backend unavailable"})
		return
	}

	flash := models.FlashAssessment{
		UserID:   uid,
		Query:    req.Query,
		Response: result.Response,
		Category: result.Category,
		Urgency:  models.UrgencyLevel(result.Urgency),
	}
	if err := db.DB.Create(&flash).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the flash assessment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the flash assessment"})
		return
	}

	recordUsage(uid, "flash_assessment")
	utils.LogSuccessWithUser(userID, "Flash assessment completed")
	c.JSON(http.StatusCreated, flash)
}
