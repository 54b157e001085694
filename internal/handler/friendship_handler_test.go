package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-global DB at a fresh in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    username,
		LastName:     "Test",
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSendFriendRequestSelfPair(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	user := createTestUser(t, db, "selfuser")

	router := gin.New()
	router.POST("/friendship/request", SendFriendRequest)

	rec := performJSON(t, router, http.MethodPost, "/friendship/request", FriendshipInput{
		FromUserID: user.ID,
		ToUserID:   user.ID,
	})

	// An existing user naming themselves is a bad request, not a 404.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "themselves")

	var count int64
	require.NoError(t, db.Model(&models.Friendship{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestBlockUserSelfPair(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	user := createTestUser(t, db, "selfblocker")

	router := gin.New()
	router.POST("/friendship/block", BlockUser)

	rec := performJSON(t, router, http.MethodPost, "/friendship/block", BlockInput{
		BlockerUserID: user.ID,
		BlockedUserID: user.ID,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "themselves")
}

func TestSendFriendRequestMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	user := createTestUser(t, db, "requester")

	router := gin.New()
	router.POST("/friendship/request", SendFriendRequest)

	rec := performJSON(t, router, http.MethodPost, "/friendship/request", FriendshipInput{
		FromUserID: user.ID,
		ToUserID:   "00000000-0000-0000-0000-000000000000",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendFriendRequestDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	a := createTestUser(t, db, "dupa")
	b := createTestUser(t, db, "dupb")

	router := gin.New()
	router.POST("/friendship/request", SendFriendRequest)

	input := FriendshipInput{FromUserID: a.ID, ToUserID: b.ID}
	rec := performJSON(t, router, http.MethodPost, "/friendship/request", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The swapped pair hits the same canonical row.
	rec = performJSON(t, router, http.MethodPost, "/friendship/request", FriendshipInput{
		FromUserID: b.ID,
		ToUserID:   a.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendFriendRequestNotifiesRecipient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	a := createTestUser(t, db, "notifa")
	b := createTestUser(t, db, "notifb")

	router := gin.New()
	router.POST("/friendship/request", SendFriendRequest)

	rec := performJSON(t, router, http.MethodPost, "/friendship/request", FriendshipInput{
		FromUserID: a.ID,
		ToUserID:   b.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var n models.Notification
	require.NoError(t, db.First(&n, "recipient_id = ?", b.ID).Error)
	assert.Equal(t, models.NotificationFriendRequest, n.Type)
	assert.Equal(t, a.ID, n.SenderID)
	assert.Equal(t, fmt.Sprintf("%s Test sent you a friend request", a.FirstName), n.Message)
}
