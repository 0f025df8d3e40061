package db

import (
	"time"
)

// User is an account together with its public profile.
//
// Fields:
//   - ID: uuid string, also the owner id in likes/{id}/users.
//   - Email: unique sign-in name, stored lowercased.
//   - Name, Description, Skills: the profile shown in discovery. A profile
//     is complete when all three are set.
//   - Skills: JSON array in a text column so the same model works on mysql and sqlite.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Name         string    `gorm:"size:128"`
	Description  string    `gorm:"type:text"`
	Skills       []string  `gorm:"type:text;serializer:json"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;index"`
}

// ProfileComplete reports whether the user can appear in discovery.
func (u User) ProfileComplete() bool {
	return u.Name != "" && u.Description != "" && len(u.Skills) > 0
}
