package chat

import (
	"net/http"

	"vitalis-backend/db"
	"vitalis-backend/handlers/stripe"
	"vitalis-backend/models"
	"vitalis-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

// @Summary Send a chat message
// @Description Send a message to the AI assistant; omit conversation_id to open a new thread
// @Tags chat
// @Accept json
// @Produce json
// @Param message body messageRequest true "Message and optional conversation id"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "conversation_id, message, reply"
// @Failure 400 {object} map[string]string "error: Invalid input"
// @Failure 403 {object} map[string]interface{} "error: Monthly limit reached"
// @Failure 502 {object} map[string]string "error: Analysis backend unavailable"
// @Router /chat [post]
func SendMessage(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	uid, _ := userID.(string)

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	} else {
		if _, err := uuid.Parse(conversationID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id format"})
			return
		}
		var count int64
		db.DB.Model(&models.OracleChatMessage{}).
			Where("conversation_id = ? AND user_id != ?", conversationID, userID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "This conversation does not belong to you"})
			return
		}
	}

	tier := stripe.CurrentTier(userID)
	limits := stripe.LimitsForTier(tier)
	usage := stripe.MonthlyUsage(userID)
	if limits.OracleChats >= 0 && usage.OracleChats >= int64(limits.OracleChats) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Monthly chat limit reached for your plan",
			"tier":  tier,
			"limit": limits.OracleChats,
			"used":  usage.OracleChats,
		})
		return
	}

	userMessage := models.OracleChatMessage{
		UserID:         uid,
		ConversationID: conversationID,
		Role:           models.ChatRoleUser,
		Content:        req.Message,
	}
	if err := db.DB.Create(&userMessage).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the chat message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the message"})
		return
	}

	result, err := utils.OracleChat(uid, conversationID, req.Message)
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Chat reply failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis backend unavailable"})
		return
	}

	reply := models.OracleChatMessage{
		UserID:         uid,
		ConversationID: conversationID,
		Role:           models.ChatRoleAssistant,
		Content:        result.Reply,
	}
	if err := db.DB.Create(&reply).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error saving the chat reply")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving the reply"})
		return
	}

	utils.LogSuccessWithUser(userID, "Chat message answered")
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"message":         userMessage,
		"reply":           reply,
	})
}

type conversationSummary struct {
	ConversationID string `json:"conversationId"`
	LastMessageAt  string `json:"lastMessageAt"`
	MessageCount   int64  `json:"messageCount"`
}

// @Summary List the user's conversations
// @Description Return conversation threads with their last activity, newest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} conversationSummary
// @Router /chat/conversations [get]
func GetConversations(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var conversations []conversationSummary
	err := db.DB.Model(&models.OracleChatMessage{}).
		Select("conversation_id, MAX(created_at) AS last_message_at, COUNT(*) AS message_count").
		Where("user_id = ?", userID).
		Group("conversation_id").
		Order("last_message_at DESC").
		Scan(&conversations).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// @Summary Get one conversation's messages
// @Tags chat
// @Produce json
// @Param id path string true "Conversation ID"
// @Security BearerAuth
// @Success 200 {array} models.OracleChatMessage
// @Router /chat/conversations/{id} [get]
func GetConversationMessages(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id format"})
		return
	}

	var messages []models.OracleChatMessage
	err := db.DB.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}
