package models

import (
	"time"
)

// FlashAssessment is a free-text one-question triage.
type FlashAssessment struct {
	ID        string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string       `json:"userId" gorm:"type:uuid;not null;index"`
	Query     string       `json:"query"`
	Response  string       `json:"response"`
	Category  string       `json:"category" gorm:"type:varchar(50)"`
	Urgency   UrgencyLevel `json:"urgency" gorm:"type:varchar(20)"`
	CreatedAt time.Time    `json:"createdAt"`
}
