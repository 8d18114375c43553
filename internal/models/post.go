package models

import "time"

// LabelLength is the number of characters of text shown in a post label.
const LabelLength = 15

// Post is a text entry with an optional group and image.
// Author and CreatedAt are fixed at creation.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
}

// String returns the first LabelLength characters of the text.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) <= LabelLength {
		return p.Text
	}
	return string(runes[:LabelLength])
}
