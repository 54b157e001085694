package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventType string

const (
	EventTypeSport    EventType = "sport"
	EventTypeSocial   EventType = "social"
	EventTypeStudy    EventType = "study"
	EventTypeCultural EventType = "cultural"
	EventTypeOther    EventType = "other"
)

type EventPrivacy string

const (
	PrivacyPublic  EventPrivacy = "public"
	PrivacyFriends EventPrivacy = "friends"
	PrivacyPrivate EventPrivacy = "private"
)

type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventFinished  EventStatus = "finished"
	EventCancelled EventStatus = "cancelled"
)

// Event is a geolocated post users can register for and attend.
type Event struct {
	ID        string       `gorm:"type:uuid;primaryKey"`
	AuthorID  string       `gorm:"type:uuid;not null;index"`
	Text      string       `gorm:"not null"`
	Type      EventType    `gorm:"size:20;not null;default:'other'"`
	Privacy   EventPrivacy `gorm:"size:20;not null;default:'public'"`
	Status    EventStatus  `gorm:"size:20;not null;default:'active'"`
	EventDate *time.Time
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time

	Author User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Title is the truncated form of the event text used in responses. Truncation
// counts runes, not bytes, so multi-byte text never splits mid-character.
func (e *Event) Title() string {
	runes := []rune(e.Text)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return e.Text
}
