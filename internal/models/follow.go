package models

// Follow is a directed edge: UserID follows AuthorID.
type Follow struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;index;uniqueIndex:idx_follow_user_author" json:"user_id"`
	User     User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	AuthorID uint `gorm:"not null;index;uniqueIndex:idx_follow_user_author" json:"author_id"`
	Author   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
