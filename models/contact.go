package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact is a support request submitted from the app.
type Contact struct {
	ID          string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FirstName   string         `json:"firstName" binding:"required"`
	LastName    string         `json:"lastName" binding:"required"`
	Email       string         `json:"email" binding:"required,email"`
	Subject     string         `json:"subject" binding:"required"`
	Message     string         `json:"message" binding:"required"`
	SubmittedAt time.Time      `json:"submittedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
