package models

import "time"

// Like records that a user liked an event. The composite primary key makes a
// second like from the same user a constraint violation.
type Like struct {
	UserID    string `gorm:"type:uuid;primaryKey"`
	EventID   string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	User  User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event Event `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
