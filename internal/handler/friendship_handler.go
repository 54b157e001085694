package handler

import (
	"net/http"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/friendship"
	"routemeet/backend/internal/models"
	"routemeet/backend/internal/notify"
	"routemeet/backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// region --- DTOs ---

// FriendshipInput identifies the two sides of a request-scoped operation.
type FriendshipInput struct {
	FromUserID string `json:"from_user_id" binding:"required"`
	ToUserID   string `json:"to_user_id" binding:"required"`
}

// BlockInput identifies a blocker/blocked pair.
type BlockInput struct {
	BlockerUserID string `json:"blocker_user_id" binding:"required"`
	BlockedUserID string `json:"blocked_user_id" binding:"required"`
}

// FriendshipResponse is the canonical relationship row as returned to clients.
type FriendshipResponse struct {
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	State     string    `json:"state"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newFriendshipResponse(f *models.Friendship) FriendshipResponse {
	return FriendshipResponse{
		UserAID:   f.UserAID,
		UserBID:   f.UserBID,
		State:     string(f.State),
		ActorID:   f.ActorID,
		CreatedAt: f.CreatedAt,
	}
}

func newFriendshipResponses(rows []models.Friendship) []FriendshipResponse {
	out := make([]FriendshipResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newFriendshipResponse(&rows[i]))
	}
	return out
}

// endregion

func validUUID(c *gin.Context, ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return false
		}
	}
	return true
}

func usersExist(c *gin.Context, ids ...string) bool {
	var count int64
	if err := database.DB.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up users"})
		return false
	}
	if count != int64(len(ids)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return false
	}
	return true
}

// GetFriendshipStatus godoc
// @Summary      Get friendship status between two users
// @Description  Returns the relationship state from the first user's point of view.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        a   path      string  true  "First user ID (the caller)"
// @Param        b   path      string  true  "Second user ID"
// @Success      200  {object}  friendship.StatusInfo
// @Failure      400  {object}  ErrorResponse
// @Router       /friendship/status/{a}/{b} [get]
func GetFriendshipStatus(c *gin.Context) {
	callerID := c.Param("a")
	otherID := c.Param("b")
	if !validUUID(c, callerID, otherID) {
		return
	}

	info, err := friendship.NewManager(database.DB).Status(callerID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// SendFriendRequest godoc
// @Summary      Send friend request
// @Description  Creates a pending relationship between two users.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendshipInput true "Requester and recipient"
// @Success      201  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Relationship already exists"
// @Router       /friendship/request [post]
func SendFriendRequest(c *gin.Context) {
	var input FriendshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.FromUserID, input.ToUserID) {
		return
	}
	// Checked here as well as in the manager: usersExist counts distinct
	// rows, so an equal pair would otherwise surface as a 404.
	if input.FromUserID == input.ToUserID {
		respondError(c, apperrors.ErrSelfRelation)
		return
	}
	if !usersExist(c, input.FromUserID, input.ToUserID) {
		return
	}

	f, err := friendship.NewManager(database.DB).SendRequest(input.FromUserID, input.ToUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	var sender models.User
	if err := database.DB.First(&sender, "id = ?", input.FromUserID).Error; err == nil {
		notify.NewDispatcher(database.DB).FriendRequest(input.ToUserID, sender.ID, sender.FullName())
	}

	c.JSON(http.StatusCreated, newFriendshipResponse(f))
}

// AcceptFriendRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending request. Only the recipient may accept.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        other  path   string  true  "The requester's user ID"
// @Param        user   query  string  true  "The accepting user's ID"
// @Success      200  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse "Accepting own request"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Router       /friendship/accept/{other} [put]
func AcceptFriendRequest(c *gin.Context) {
	otherID := c.Param("other")
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'user' query parameter is required"})
		return
	}
	if !validUUID(c, otherID, userID) {
		return
	}

	f, err := friendship.NewManager(database.DB).Accept(userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	var accepter models.User
	if err := database.DB.First(&accepter, "id = ?", userID).Error; err == nil {
		notify.NewDispatcher(database.DB).FriendAccepted(otherID, accepter.ID, accepter.FullName())
	}

	c.JSON(http.StatusOK, newFriendshipResponse(f))
}

// CancelFriendRequest godoc
// @Summary      Cancel friend request
// @Description  Deletes a pending request. Only the original requester may cancel.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendshipInput true "Requester and recipient"
// @Success      200  {object}  map[string]string "{"message": "Friend request cancelled"}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friendship/request [delete]
func CancelFriendRequest(c *gin.Context) {
	var input FriendshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.FromUserID, input.ToUserID) {
		return
	}

	if err := friendship.NewManager(database.DB).CancelRequest(input.FromUserID, input.ToUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend request cancelled"})
}

// RemoveFriendship godoc
// @Summary      Remove friendship
// @Description  Deletes an accepted friendship. Either party may call this.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendshipInput true "The two friends"
// @Success      200  {object}  map[string]string "{"message": "Friendship removed"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /friendship/friendship [delete]
func RemoveFriendship(c *gin.Context) {
	var input FriendshipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.FromUserID, input.ToUserID) {
		return
	}

	if err := friendship.NewManager(database.DB).Remove(input.FromUserID, input.ToUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friendship removed"})
}

// BlockUser godoc
// @Summary      Block user
// @Description  Blocks a user, superseding any prior relationship state.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body BlockInput true "Blocker and blocked"
// @Success      200  {object}  map[string]string "{"message": "User blocked"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friendship/block [post]
func BlockUser(c *gin.Context) {
	var input BlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.BlockerUserID, input.BlockedUserID) {
		return
	}
	if input.BlockerUserID == input.BlockedUserID {
		respondError(c, apperrors.ErrSelfRelation)
		return
	}
	if !usersExist(c, input.BlockerUserID, input.BlockedUserID) {
		return
	}

	if err := friendship.NewManager(database.DB).Block(input.BlockerUserID, input.BlockedUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User blocked"})
}

// UnblockUser godoc
// @Summary      Unblock user
// @Description  Removes a block. Only the user who blocked can unblock.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body BlockInput true "Blocker and blocked"
// @Success      200  {object}  map[string]string "{"message": "User unblocked"}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friendship/unblock [post]
func UnblockUser(c *gin.Context) {
	var input BlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.BlockerUserID, input.BlockedUserID) {
		return
	}

	if err := friendship.NewManager(database.DB).Unblock(input.BlockerUserID, input.BlockedUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User unblocked"})
}

// GetFriends godoc
// @Summary      List a user's friends
// @Description  Returns the other party of every accepted relationship touching the user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        user  path  string  true  "User ID"
// @Success      200  {array}  friendship.Friend
// @Failure      400  {object}  ErrorResponse
// @Router       /friendship/friends/{user} [get]
func GetFriends(c *gin.Context) {
	userID := c.Param("user")
	if !validUUID(c, userID) {
		return
	}

	friends, err := friendship.NewManager(database.DB).Friends(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, friends)
}

// GetPendingRequests godoc
// @Summary      List pending incoming requests
// @Description  Returns pending requests awaiting the user's decision.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        user  query  string  true  "User ID"
// @Success      200  {array}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /friendship/pending [get]
func GetPendingRequests(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'user' query parameter is required"})
		return
	}
	if !validUUID(c, userID) {
		return
	}

	rows, err := friendship.NewManager(database.DB).PendingIncoming(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFriendshipResponses(rows))
}

// GetBlockedUsers godoc
// @Summary      List users blocked by a user
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        user  query  string  true  "User ID"
// @Success      200  {array}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /friendship/blocked [get]
func GetBlockedUsers(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'user' query parameter is required"})
		return
	}
	if !validUUID(c, userID) {
		return
	}

	rows, err := friendship.NewManager(database.DB).BlockedBy(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFriendshipResponses(rows))
}

// GetFriendships godoc
// @Summary      List all relationship rows touching a user
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        user  query  string  true  "User ID"
// @Success      200  {array}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /friendship [get]
func GetFriendships(c *gin.Context) {
	userID := c.Query("user")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A 'user' query parameter is required"})
		return
	}
	if !validUUID(c, userID) {
		return
	}

	rows, err := friendship.NewManager(database.DB).All(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFriendshipResponses(rows))
}
