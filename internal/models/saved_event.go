package models

import "time"

// SavedEvent bookmarks an event for a user.
type SavedEvent struct {
	UserID    string `gorm:"type:uuid;primaryKey"`
	EventID   string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	User  User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event Event `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
