// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a profile keyed by the identity provider's subject id.
type User struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	ExternalID  string    `gorm:"size:128;not null;uniqueIndex" bson:"external_id" json:"external_id"`
	Username    string    `gorm:"size:30;not null;uniqueIndex" bson:"username" json:"username"`
	Name        string    `gorm:"size:120" bson:"name" json:"name"`
	Bio         string    `gorm:"type:text" bson:"bio" json:"bio"`
	Image       string    `bson:"image" json:"image"`
	Onboarded   bool      `gorm:"not null;default:false" bson:"onboarded" json:"onboarded"`
	Threads     []string  `gorm:"type:text;serializer:json" bson:"threads" json:"threads"`
	Communities []string  `gorm:"type:text;serializer:json" bson:"communities" json:"communities"`
	CreatedAt   time.Time `gorm:"index" bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// HasCommunity reports whether communityID is in the user's community set.
func (u *User) HasCommunity(communityID string) bool {
	for _, id := range u.Communities {
		if id == communityID {
			return true
		}
	}
	return false
}
