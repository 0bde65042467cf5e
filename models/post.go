package models

import "time"

// Post is a publication by a user. PubDate and AuthorID are written on create only.
// The group reference is RESTRICT on delete: a group cannot disappear from under its posts.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index;<-:create" json:"pub_date"`
	AuthorID uint      `gorm:"index;not null;<-:create" json:"author_id"`
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Image    string    `gorm:"size:255" json:"image,omitempty"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	Group    *Group    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"group,omitempty"`
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// String returns the first 15 characters of the text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > 15 {
		return string(r[:15])
	}
	return p.Text
}
