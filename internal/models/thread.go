package models

import "time"

// MaxThreadTextLength bounds the body of a thread or comment, in runes.
const MaxThreadTextLength = 5000

// Thread is a post. A thread with a ParentID is a comment on that parent.
type Thread struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Text        string    `gorm:"type:text;not null" bson:"text" json:"text"`
	AuthorID    string    `gorm:"size:36;not null;index" bson:"author_id" json:"author_id"`
	ParentID    *string   `gorm:"size:36;index" bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	CommunityID *string   `gorm:"size:36;index" bson:"community_id,omitempty" json:"community_id,omitempty"`
	Children    []string  `gorm:"type:text;serializer:json" bson:"children" json:"children"`
	CreatedAt   time.Time `gorm:"index" bson:"created_at" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Thread) TableName() string {
	return "threads"
}

// IsTopLevel reports whether the thread is a root post rather than a comment.
func (t *Thread) IsTopLevel() bool {
	return t.ParentID == nil
}
