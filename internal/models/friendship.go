package models

import "time"

// FriendshipState defines the state of the single relationship row kept for
// an unordered pair of users.
type FriendshipState string

const (
	// FriendshipPending means a friend request has been sent but not yet accepted.
	FriendshipPending FriendshipState = "pending"

	// FriendshipAccepted means the request was accepted, and the users are now friends.
	FriendshipAccepted FriendshipState = "accepted"

	// FriendshipBlocked means one of the pair blocked the other. The blocker is
	// the row's actor.
	FriendshipBlocked FriendshipState = "blocked"
)

// Friendship represents the relationship between two users. The pair is stored
// in canonical order (UserAID < UserBID), so at most one row can exist for any
// unordered pair and lookups never depend on caller-supplied order. The check
// constraint rejects rows that would break that ordering.
type Friendship struct {
	UserAID   string          `gorm:"type:uuid;primaryKey;check:chk_user_order,user_a_id < user_b_id"`
	UserBID   string          `gorm:"type:uuid;primaryKey"`
	State     FriendshipState `gorm:"type:varchar(20);not null"`
	ActorID   string          `gorm:"type:uuid;not null"`
	CreatedAt time.Time

	UserA User `gorm:"foreignKey:UserAID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserB User `gorm:"foreignKey:UserBID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Other returns the member of the pair that is not the given user.
func (f *Friendship) Other(userID string) string {
	if f.UserAID == userID {
		return f.UserBID
	}
	return f.UserAID
}
