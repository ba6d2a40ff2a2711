package models

import (
	"time"
)

type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   *uint     `gorm:"index" json:"post_id"` // nulled when the post is deleted
	Post     *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"post"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime" json:"created"`
}
