package handler

import (
	"errors"
	"net/http"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// LikeResponse is one like row, used when listing a user's likes.
type LikeResponse struct {
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeCountResponse summarizes an event's likes.
type LikeCountResponse struct {
	EventID    string   `json:"event_id"`
	TotalLikes int      `json:"total_likes"`
	UserIDs    []string `json:"user_ids"`
}

// endregion

// LikeEvent godoc
// @Summary      Like an event
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Event ID"
// @Success      201  {object}  map[string]string "{"message": "Event liked"}"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already liked"
// @Router       /events/{id}/like [post]
func LikeEvent(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("id")
	if !validUUID(c, eventID) {
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	like := models.Like{UserID: userID.(string), EventID: eventID}
	if err := database.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Event already liked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like event"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Event liked"})
}

// UnlikeEvent godoc
// @Summary      Remove a like
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]string "{"message": "Like removed"}"
// @Failure      404  {object}  ErrorResponse "Event not liked"
// @Router       /events/{id}/like [delete]
func UnlikeEvent(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("id")
	if !validUUID(c, eventID) {
		return
	}

	result := database.DB.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&models.Like{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove like"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not liked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Like removed"})
}

// GetEventLikes godoc
// @Summary      Get an event's likes
// @Description  Returns the like total and the users who liked the event.
// @Tags         likes
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  LikeCountResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /events/{id}/likes [get]
func GetEventLikes(c *gin.Context) {
	eventID := c.Param("id")
	if !validUUID(c, eventID) {
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var userIDs []string
	err := database.DB.Model(&models.Like{}).
		Where("event_id = ?", eventID).
		Order("created_at").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch likes"})
		return
	}
	if userIDs == nil {
		userIDs = []string{}
	}

	c.JSON(http.StatusOK, LikeCountResponse{
		EventID:    eventID,
		TotalLikes: len(userIDs),
		UserIDs:    userIDs,
	})
}

// GetUserLikes godoc
// @Summary      List a user's likes
// @Tags         likes
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      200  {array}   LikeResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/likes [get]
func GetUserLikes(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}
	if !usersExist(c, id) {
		return
	}

	var rows []models.Like
	err := database.DB.Where("user_id = ?", id).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch likes"})
		return
	}

	likes := make([]LikeResponse, 0, len(rows))
	for _, row := range rows {
		likes = append(likes, LikeResponse{
			UserID:    row.UserID,
			EventID:   row.EventID,
			CreatedAt: row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, likes)
}
