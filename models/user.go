package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	AdminRole Role = "ADMIN"
	UserRole  Role = "USER"
)

type User struct {
	ID                string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email             string       `json:"email" binding:"required,email" gorm:"uniqueIndex;not null"`
	Password          string       `json:"password,omitempty"`
	FirstName         string       `json:"firstName"`
	LastName          string       `json:"lastName"`
	Role              Role         `json:"role" gorm:"type:varchar(20);default:'USER'"`
	StripeCustomerId  string       `json:"stripeCustomerId"`
	Age               int          `json:"age"`
	Sex               string       `json:"sex"`
	MedicalConditions string       `json:"medicalConditions"`
	Medications       string       `json:"medications"`
	EmailVerifiedAt   sql.NullTime `json:"emailVerifiedAt"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

type UserLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserProfileUpdate struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Age               int    `json:"age"`
	Sex               string `json:"sex"`
	MedicalConditions string `json:"medicalConditions"`
	Medications       string `json:"medications"`
}
