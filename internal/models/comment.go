package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a user's comment on an event. A non-nil ParentID makes it a
// reply; replies are one level deep, a reply's replies hang off the same
// parent.
type Comment struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	EventID   string  `gorm:"type:uuid;not null;index"`
	AuthorID  string  `gorm:"type:uuid;not null"`
	ParentID  *string `gorm:"type:uuid"`
	Text      string  `gorm:"type:text;not null"`
	CreatedAt time.Time

	Author User     `gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event  Event    `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Parent *Comment `gorm:"foreignKey:ParentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
