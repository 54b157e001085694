package friendship

import (
	"errors"
	"time"

	"routemeet/backend/internal/models"
	"routemeet/backend/pkg/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Status is the caller-facing relationship state between two users.
type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusBlocked  Status = "blocked"
)

// StatusInfo is the caller-relative view derived from the canonical row.
type StatusInfo struct {
	Status          Status `json:"status"`
	IsBlockedByMe   bool   `json:"isBlockedByMe"`
	IsBlockedByThem bool   `json:"isBlockedByThem"`
}

// Friend is a resolved friendship entry: the other party plus when the
// relationship row was created.
type Friend struct {
	UserID    string    `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PhotoURL  string    `json:"photo_url"`
	Verified  bool      `json:"verified"`
	Since     time.Time `json:"since"`
}

// Manager is the single source of truth for pairwise social state. Every
// operation canonicalizes the pair before touching storage, so the two
// directions of "is A related to B" always resolve to the same row.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Canonicalize orders two user IDs under the lexicographic total order used
// for storage. Callers must reject equal IDs before calling.
func Canonicalize(x, y string) (string, string) {
	if x < y {
		return x, y
	}
	return y, x
}

func (m *Manager) find(x, y string, conds ...interface{}) (*models.Friendship, error) {
	a, b := Canonicalize(x, y)
	var f models.Friendship
	err := m.db.Where("user_a_id = ? AND user_b_id = ?", a, b).First(&f, conds...).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Status reports the relationship between caller and other from the caller's
// point of view. A missing row is StatusNone, never an error.
func (m *Manager) Status(callerID, otherID string) (StatusInfo, error) {
	f, err := m.find(callerID, otherID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusInfo{Status: StatusNone}, nil
	}
	if err != nil {
		return StatusInfo{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load relationship", err)
	}

	switch f.State {
	case models.FriendshipPending:
		return StatusInfo{Status: StatusPending}, nil
	case models.FriendshipAccepted:
		return StatusInfo{Status: StatusAccepted}, nil
	case models.FriendshipBlocked:
		mine := f.ActorID == callerID
		return StatusInfo{Status: StatusBlocked, IsBlockedByMe: mine, IsBlockedByThem: !mine}, nil
	}
	return StatusInfo{Status: StatusNone}, nil
}

// SendRequest creates a pending relationship with the sender as actor. The
// composite primary key on the canonical pair makes a concurrent duplicate
// insert fail with gorm.ErrDuplicatedKey, which is reported as a conflict the
// same as an existing row in any state.
func (m *Manager) SendRequest(fromID, toID string) (*models.Friendship, error) {
	if fromID == toID {
		return nil, apperrors.ErrSelfRelation
	}
	a, b := Canonicalize(fromID, toID)
	f := models.Friendship{
		UserAID: a,
		UserBID: b,
		State:   models.FriendshipPending,
		ActorID: fromID,
	}
	if err := m.db.Create(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrRelationExists
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create friend request", err)
	}
	return &f, nil
}

// Accept transitions a pending row to accepted. Only the recipient may accept:
// the requester is the row's actor, so actor == user means the caller is
// trying to accept their own request.
func (m *Manager) Accept(userID, otherID string) (*models.Friendship, error) {
	f, err := m.find(userID, otherID, "state = ?", models.FriendshipPending)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load friend request", err)
	}
	if f.ActorID == userID {
		return nil, apperrors.ErrAcceptOwnRequest
	}

	f.State = models.FriendshipAccepted
	f.ActorID = userID
	updates := map[string]interface{}{"state": f.State, "actor_id": f.ActorID}
	if err := m.db.Model(f).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to accept friend request", err)
	}
	return f, nil
}

// CancelRequest deletes a pending request. Only the original requester may
// cancel, which the actor check enforces.
func (m *Manager) CancelRequest(fromID, toID string) error {
	f, err := m.find(fromID, toID, "state = ?", models.FriendshipPending)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrRequestNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load friend request", err)
	}
	if f.ActorID != fromID {
		return apperrors.ErrNotRequester
	}
	if err := m.db.Delete(f).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to cancel friend request", err)
	}
	return nil
}

// Remove deletes an accepted friendship. Either party may call this.
func (m *Manager) Remove(xID, yID string) error {
	a, b := Canonicalize(xID, yID)
	result := m.db.Where("user_a_id = ? AND user_b_id = ? AND state = ?", a, b, models.FriendshipAccepted).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to remove friendship", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrFriendshipNotFound
	}
	return nil
}

// Block unconditionally supersedes any prior state with a blocked row owned
// by the blocker. The upsert keeps the operation race-free: two concurrent
// first-blocks collapse into one row instead of one of them failing.
func (m *Manager) Block(blockerID, blockedID string) error {
	if blockerID == blockedID {
		return apperrors.ErrSelfRelation
	}
	a, b := Canonicalize(blockerID, blockedID)
	f := models.Friendship{
		UserAID: a,
		UserBID: b,
		State:   models.FriendshipBlocked,
		ActorID: blockerID,
	}
	err := m.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"state":    models.FriendshipBlocked,
			"actor_id": blockerID,
		}),
	}).Create(&f).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to block user", err)
	}
	return nil
}

// Unblock deletes a blocked row. Only the blocker can lift their own block,
// and the pair returns to StatusNone; no prior state is restored.
func (m *Manager) Unblock(blockerID, blockedID string) error {
	f, err := m.find(blockerID, blockedID, "state = ?", models.FriendshipBlocked)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrBlockNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load block", err)
	}
	if f.ActorID != blockerID {
		return apperrors.ErrNotBlocker
	}
	if err := m.db.Delete(f).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to unblock user", err)
	}
	return nil
}

// Friends returns every accepted relationship touching the user, resolved to
// the other party's profile.
func (m *Manager) Friends(userID string) ([]Friend, error) {
	var rows []models.Friendship
	err := m.db.Preload("UserA").Preload("UserB").
		Where("state = ? AND (user_a_id = ? OR user_b_id = ?)", models.FriendshipAccepted, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list friends", err)
	}

	friends := make([]Friend, 0, len(rows))
	for _, row := range rows {
		other := row.UserA
		if row.UserAID == userID {
			other = row.UserB
		}
		friends = append(friends, Friend{
			UserID:    other.ID,
			Username:  other.Username,
			FirstName: other.FirstName,
			LastName:  other.LastName,
			PhotoURL:  other.PhotoURL,
			Verified:  other.Verified,
			Since:     row.CreatedAt,
		})
	}
	return friends, nil
}

// PendingIncoming returns pending rows awaiting the user's decision, i.e.
// requests where someone else is the actor.
func (m *Manager) PendingIncoming(userID string) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := m.db.
		Where("state = ? AND (user_a_id = ? OR user_b_id = ?) AND actor_id <> ?",
			models.FriendshipPending, userID, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list pending requests", err)
	}
	return rows, nil
}

// All returns every relationship row touching the user, regardless of state.
func (m *Manager) All(userID string) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := m.db.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list relationships", err)
	}
	return rows, nil
}

// BlockedBy returns the blocked rows the user created.
func (m *Manager) BlockedBy(userID string) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := m.db.
		Where("state = ? AND actor_id = ?", models.FriendshipBlocked, userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list blocked users", err)
	}
	return rows, nil
}

// BlockedIDs returns the IDs of every user with a blocked row against the
// given user, in either direction. Listings use this to hide content
// bidirectionally even though only the blocker can undo the block.
func (m *Manager) BlockedIDs(userID string) ([]string, error) {
	var rows []models.Friendship
	err := m.db.
		Where("state = ? AND (user_a_id = ? OR user_b_id = ?)", models.FriendshipBlocked, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list blocked pairs", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Other(userID))
	}
	return ids, nil
}
