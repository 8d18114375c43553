package models

// Group is a topical category that posts may be tagged with.
// Groups are created administratively.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id" yaml:"-"`
	Title       string `gorm:"size:200;not null" json:"title" yaml:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug" yaml:"slug"`
	Description string `gorm:"type:text;not null" json:"description" yaml:"description"`
}

func (g Group) String() string {
	return g.Title
}
