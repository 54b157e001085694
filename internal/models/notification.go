package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationMention        NotificationType = "mention"
	NotificationReply          NotificationType = "reply"
)

// Notification is a message delivered to a user's inbox.
type Notification struct {
	ID          string           `gorm:"type:uuid;primaryKey"`
	RecipientID string           `gorm:"type:uuid;not null;index"`
	SenderID    string           `gorm:"type:uuid;not null"`
	EventID     *string          `gorm:"type:uuid"`
	CommentID   *string          `gorm:"type:uuid"`
	Type        NotificationType `gorm:"size:50;not null"`
	Message     string           `gorm:"not null"`
	Read        bool             `gorm:"default:false"`
	CreatedAt   time.Time

	Recipient User     `gorm:"foreignKey:RecipientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Sender    User     `gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event     *Event   `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Comment   *Comment `gorm:"foreignKey:CommentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
