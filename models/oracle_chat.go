package models

import (
	"time"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// OracleChatMessage stores one turn of an AI chat conversation. Messages
// sharing a ConversationID form a thread.
type OracleChatMessage struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID         string    `json:"userId" gorm:"type:uuid;not null;index"`
	ConversationID string    `json:"conversationId" gorm:"type:uuid;not null;index"`
	Role           ChatRole  `json:"role" gorm:"type:varchar(20)"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
