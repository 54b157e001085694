package friendship

import (
	"fmt"
	"testing"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"
	"routemeet/backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		u := models.User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: "x",
			FirstName:    "User",
			LastName:     fmt.Sprintf("%d", i),
		}
		require.NoError(t, db.Create(&u).Error)
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCanonicalize(t *testing.T) {
	a, b := Canonicalize("bbb", "aaa")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)

	a, b = Canonicalize("aaa", "bbb")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)
}

func TestSendRequest(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	t.Run("creates a pending row with the sender as actor", func(t *testing.T) {
		f, err := m.SendRequest(ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipPending, f.State)
		assert.Equal(t, ids[0], f.ActorID)

		a, b := Canonicalize(ids[0], ids[1])
		assert.Equal(t, a, f.UserAID)
		assert.Equal(t, b, f.UserBID)
	})

	t.Run("swapped duplicate hits the same row", func(t *testing.T) {
		_, err := m.SendRequest(ids[1], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrRelationExists)
	})

	t.Run("self request is rejected", func(t *testing.T) {
		_, err := m.SendRequest(ids[0], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrSelfRelation)
	})
}

func TestAccept(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	_, err := m.SendRequest(ids[0], ids[1])
	require.NoError(t, err)

	t.Run("requester cannot accept their own request", func(t *testing.T) {
		_, err := m.Accept(ids[0], ids[1])
		assert.ErrorIs(t, err, apperrors.ErrAcceptOwnRequest)
	})

	t.Run("recipient accepts", func(t *testing.T) {
		f, err := m.Accept(ids[1], ids[0])
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipAccepted, f.State)
		assert.Equal(t, ids[1], f.ActorID)
	})

	t.Run("both directions now report accepted", func(t *testing.T) {
		for _, pair := range [][2]string{{ids[0], ids[1]}, {ids[1], ids[0]}} {
			info, err := m.Status(pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, StatusAccepted, info.Status)
		}
	})

	t.Run("accepting again fails, no pending row left", func(t *testing.T) {
		_, err := m.Accept(ids[1], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	})
}

func TestCancelRequest(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	_, err := m.SendRequest(ids[0], ids[1])
	require.NoError(t, err)

	t.Run("recipient cannot cancel", func(t *testing.T) {
		err := m.CancelRequest(ids[1], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrNotRequester)
	})

	t.Run("requester cancels and the pair goes back to none", func(t *testing.T) {
		require.NoError(t, m.CancelRequest(ids[0], ids[1]))

		info, err := m.Status(ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusNone, info.Status)
	})

	t.Run("cancelling a missing request fails", func(t *testing.T) {
		err := m.CancelRequest(ids[0], ids[1])
		assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	})
}

func TestRemove(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	t.Run("removing a non-friendship fails", func(t *testing.T) {
		err := m.Remove(ids[0], ids[1])
		assert.ErrorIs(t, err, apperrors.ErrFriendshipNotFound)
	})

	t.Run("either party can remove an accepted friendship", func(t *testing.T) {
		_, err := m.SendRequest(ids[0], ids[1])
		require.NoError(t, err)
		_, err = m.Accept(ids[1], ids[0])
		require.NoError(t, err)

		// Removed by the party who did not accept.
		require.NoError(t, m.Remove(ids[0], ids[1]))

		info, err := m.Status(ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusNone, info.Status)
	})

	t.Run("pending rows are not removable as friendships", func(t *testing.T) {
		_, err := m.SendRequest(ids[0], ids[1])
		require.NoError(t, err)

		err = m.Remove(ids[0], ids[1])
		assert.ErrorIs(t, err, apperrors.ErrFriendshipNotFound)
	})
}

func TestBlock(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	t.Run("block supersedes an accepted friendship", func(t *testing.T) {
		_, err := m.SendRequest(ids[0], ids[1])
		require.NoError(t, err)
		_, err = m.Accept(ids[1], ids[0])
		require.NoError(t, err)

		require.NoError(t, m.Block(ids[0], ids[1]))

		info, err := m.Status(ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, info.Status)
		assert.True(t, info.IsBlockedByMe)
		assert.False(t, info.IsBlockedByThem)
	})

	t.Run("the blocked party sees the mirror view", func(t *testing.T) {
		info, err := m.Status(ids[1], ids[0])
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, info.Status)
		assert.False(t, info.IsBlockedByMe)
		assert.True(t, info.IsBlockedByThem)
	})

	t.Run("only one row exists for the pair", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&models.Friendship{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("the blocked party cannot unblock", func(t *testing.T) {
		err := m.Unblock(ids[1], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrNotBlocker)
	})

	t.Run("the blocker unblocks back to none, not to the prior state", func(t *testing.T) {
		require.NoError(t, m.Unblock(ids[0], ids[1]))

		info, err := m.Status(ids[0], ids[1])
		require.NoError(t, err)
		assert.Equal(t, StatusNone, info.Status)
	})

	t.Run("unblocking with no block fails", func(t *testing.T) {
		err := m.Unblock(ids[0], ids[1])
		assert.ErrorIs(t, err, apperrors.ErrBlockNotFound)
	})

	t.Run("self block is rejected", func(t *testing.T) {
		err := m.Block(ids[0], ids[0])
		assert.ErrorIs(t, err, apperrors.ErrSelfRelation)
	})
}

func TestListings(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 4)
	m := NewManager(db)

	// ids[0] is friends with ids[1], has an incoming request from ids[2],
	// and has blocked ids[3].
	_, err := m.SendRequest(ids[0], ids[1])
	require.NoError(t, err)
	_, err = m.Accept(ids[1], ids[0])
	require.NoError(t, err)
	_, err = m.SendRequest(ids[2], ids[0])
	require.NoError(t, err)
	require.NoError(t, m.Block(ids[0], ids[3]))

	t.Run("friends resolves the other party", func(t *testing.T) {
		friends, err := m.Friends(ids[0])
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, ids[1], friends[0].UserID)
		assert.Equal(t, "user1", friends[0].Username)
	})

	t.Run("pending excludes the user's own outgoing requests", func(t *testing.T) {
		pending, err := m.PendingIncoming(ids[0])
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, ids[2], pending[0].ActorID)

		// The requester has no incoming requests.
		pending, err = m.PendingIncoming(ids[2])
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("blocked lists only rows the user created", func(t *testing.T) {
		blocked, err := m.BlockedBy(ids[0])
		require.NoError(t, err)
		require.Len(t, blocked, 1)
		assert.Equal(t, ids[3], blocked[0].Other(ids[0]))

		blocked, err = m.BlockedBy(ids[3])
		require.NoError(t, err)
		assert.Empty(t, blocked)
	})

	t.Run("blocked IDs cover both directions", func(t *testing.T) {
		blockedIDs, err := m.BlockedIDs(ids[3])
		require.NoError(t, err)
		assert.Equal(t, []string{ids[0]}, blockedIDs)
	})

	t.Run("all returns every row touching the user", func(t *testing.T) {
		rows, err := m.All(ids[0])
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})
}

func TestLifecycle(t *testing.T) {
	db := setupDB(t)
	ids := seedUsers(t, db, 2)
	m := NewManager(db)

	// request -> accept -> remove -> request again -> block -> unblock
	_, err := m.SendRequest(ids[0], ids[1])
	require.NoError(t, err)
	_, err = m.Accept(ids[1], ids[0])
	require.NoError(t, err)
	require.NoError(t, m.Remove(ids[1], ids[0]))

	_, err = m.SendRequest(ids[1], ids[0])
	require.NoError(t, err)
	require.NoError(t, m.Block(ids[0], ids[1]))

	info, err := m.Status(ids[1], ids[0])
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, info.Status)
	assert.True(t, info.IsBlockedByThem)

	// A blocked pair rejects new requests until the block is lifted.
	_, err = m.SendRequest(ids[1], ids[0])
	assert.ErrorIs(t, err, apperrors.ErrRelationExists)

	require.NoError(t, m.Unblock(ids[0], ids[1]))

	_, err = m.SendRequest(ids[1], ids[0])
	require.NoError(t, err)
}
