package notify

import (
	"log"

	"routemeet/backend/internal/models"

	"gorm.io/gorm"
)

// Dispatcher writes notification rows for user-facing events. Dispatch is
// best-effort: a failed notification is logged and never fails the operation
// that triggered it.
type Dispatcher struct {
	db *gorm.DB
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

func (d *Dispatcher) dispatch(n models.Notification) {
	if err := d.db.Create(&n).Error; err != nil {
		log.Printf("notify: failed to create %s notification for %s: %v", n.Type, n.RecipientID, err)
	}
}

// FriendRequest notifies the recipient of a new friend request.
func (d *Dispatcher) FriendRequest(recipientID, senderID, senderName string) {
	d.dispatch(models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        models.NotificationFriendRequest,
		Message:     senderName + " sent you a friend request",
	})
}

// FriendAccepted notifies the original requester that their request was accepted.
func (d *Dispatcher) FriendAccepted(recipientID, senderID, senderName string) {
	d.dispatch(models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        models.NotificationFriendAccepted,
		Message:     senderName + " accepted your friend request",
	})
}

// Mention notifies a user they were mentioned in a comment.
func (d *Dispatcher) Mention(recipientID, senderID, senderUsername, eventID, commentID string) {
	d.dispatch(models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		EventID:     &eventID,
		CommentID:   &commentID,
		Type:        models.NotificationMention,
		Message:     "@" + senderUsername + " mentioned you in a comment",
	})
}

// Reply notifies a comment's author that someone replied to it.
func (d *Dispatcher) Reply(recipientID, senderID, senderUsername, eventID, commentID string) {
	d.dispatch(models.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		EventID:     &eventID,
		CommentID:   &commentID,
		Type:        models.NotificationReply,
		Message:     "@" + senderUsername + " replied to your comment",
	})
}
