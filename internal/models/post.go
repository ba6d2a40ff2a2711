package models

import (
	"time"
)

type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"` // never updated after insert
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"group"`
	Image    string    `gorm:"size:255" json:"image"` // storage path, e.g. posts/<uuid>.png

	// Filled by list queries, not stored.
	CommentCount int `gorm:"-" json:"comment_count"`
}

// String returns the first 15 characters of the text.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > 15 {
		return string(runes[:15])
	}
	return p.Text
}
