package models

// Group is a community a post may optionally belong to. Slug is its stable public key.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Slug        string `gorm:"size:50;not null;uniqueIndex" json:"slug"`
}

func (g Group) String() string {
	return g.Title
}

// TableName avoids GROUPS, a reserved word in MySQL 8.
func (Group) TableName() string {
	return "post_groups"
}
