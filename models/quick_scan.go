package models

import (
	"time"
)

type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "low"
	UrgencyMedium    UrgencyLevel = "medium"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyEmergency UrgencyLevel = "emergency"
)

// QuickScan is a single-shot symptom assessment analyzed by the Oracle
// backend. FormData and Analysis hold the raw JSON exchanged with it.
type QuickScan struct {
	ID         string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID     string       `json:"userId" gorm:"type:uuid;not null;index"`
	BodyPart   string       `json:"bodyPart" gorm:"type:varchar(100)"`
	FormData   string       `json:"formData" gorm:"type:jsonb"`
	Analysis   string       `json:"analysis" gorm:"type:jsonb"`
	Confidence float64      `json:"confidence"`
	Urgency    UrgencyLevel `json:"urgency" gorm:"type:varchar(20)"`
	CreatedAt  time.Time    `json:"createdAt"`
}
