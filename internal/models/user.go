package models

import (
	"strings"
	"time"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FirstName  string    `gorm:"size:150" json:"first_name"`
	LastName   string    `gorm:"size:150" json:"last_name"`
	Password   string    `gorm:"not null" json:"-"` // bcrypt hash
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}

// FullName returns "first last", falling back to the username when both are empty.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
