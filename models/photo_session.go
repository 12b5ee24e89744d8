package models

import (
	"time"
)

// PhotoSession groups photo entries tracking a single condition over time.
type PhotoSession struct {
	ID            string       `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID        string       `json:"userId" gorm:"type:uuid;not null;index"`
	ConditionName string       `json:"conditionName" gorm:"type:varchar(200)"`
	Description   string       `json:"description"`
	Entries       []PhotoEntry `json:"entries,omitempty" gorm:"foreignKey:SessionID"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type PhotoEntry struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SessionID       string    `json:"sessionId" gorm:"type:uuid;not null;index"`
	PhotoURL        string    `json:"photoUrl"`
	StoragePublicId string    `json:"storagePublicId"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}
