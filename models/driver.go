package models

import (
	"time"
)

type Driver struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	OrganizationID string    `json:"organization_id" gorm:"not null;size:191;index"`
	Name           string    `json:"name" gorm:"not null;size:100"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null;size:191"`
	Password       string    `json:"-" gorm:"not null"`
	Phone          string    `json:"phone" gorm:"size:20"`
	Active         bool      `json:"active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organization Organization `json:"organization" gorm:"foreignKey:OrganizationID"`
}
