package models

import (
	"time"
)

type DeepDiveStatus string

const (
	DeepDiveInProgress DeepDiveStatus = "in_progress"
	DeepDiveCompleted  DeepDiveStatus = "completed"
)

// DeepDive is a multi-step assessment session. The Oracle backend keeps the
// question/answer state under OracleSessionId; the final analysis lands here
// on completion.
type DeepDive struct {
	ID              string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID          string         `json:"userId" gorm:"type:uuid;not null;index"`
	BodyPart        string         `json:"bodyPart" gorm:"type:varchar(100)"`
	OracleSessionId string         `json:"oracleSessionId"`
	Status          DeepDiveStatus `json:"status" gorm:"type:varchar(20);default:'in_progress'"`
	FinalAnalysis   string         `json:"finalAnalysis" gorm:"type:jsonb"`
	Confidence      float64        `json:"confidence"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
