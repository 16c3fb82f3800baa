package models

import "time"

// Community groups threads and members under a human readable id.
type Community struct {
	ID         string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	ExternalID string    `gorm:"size:128;not null;uniqueIndex" bson:"external_id" json:"external_id"`
	Username   string    `gorm:"size:30;not null;uniqueIndex" bson:"username" json:"username"`
	Name       string    `gorm:"size:120;not null" bson:"name" json:"name"`
	Image      string    `bson:"image" json:"image"`
	Bio        string    `gorm:"type:text" bson:"bio" json:"bio"`
	CreatedBy  string    `gorm:"size:36;index" bson:"created_by" json:"created_by"`
	Threads    []string  `gorm:"type:text;serializer:json" bson:"threads" json:"threads"`
	Members    []string  `gorm:"type:text;serializer:json" bson:"members" json:"members"`
	CreatedAt  time.Time `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// HasMember reports whether userID is listed as a member.
func (c *Community) HasMember(userID string) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}
