package handler

import (
	"errors"
	"net/http"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/friendship"
	"routemeet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SaveEvent godoc
// @Summary      Bookmark an event
// @Tags         saved-events
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string  true  "Event ID"
// @Success      201  {object}  map[string]string "{"message": "Event saved"}"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already saved"
// @Router       /saved-events/{event_id} [post]
func SaveEvent(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	saved := models.SavedEvent{UserID: userID.(string), EventID: eventID}
	if err := database.DB.Create(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Event already saved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Event saved"})
}

// UnsaveEvent godoc
// @Summary      Remove an event bookmark
// @Tags         saved-events
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]string "{"message": "Event unsaved"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /saved-events/{event_id} [delete]
func UnsaveEvent(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	result := database.DB.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&models.SavedEvent{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsave event"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not saved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event unsaved"})
}

// GetSavedEvents godoc
// @Summary      List bookmarked events
// @Description  Bookmarks whose authors have a blocked relationship with the
// @Description  viewer are excluded, in both directions.
// @Tags         saved-events
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  EventResponse
// @Router       /saved-events [get]
func GetSavedEvents(c *gin.Context) {
	userID, _ := c.Get("userID")

	blocked, err := friendship.NewManager(database.DB).BlockedIDs(userID.(string))
	if err != nil {
		respondError(c, err)
		return
	}

	var saved []models.SavedEvent
	query := database.DB.Preload("Event").Preload("Event.Author").Where("user_id = ?", userID)
	if err := query.Find(&saved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch saved events"})
		return
	}

	blockedSet := make(map[string]struct{}, len(blocked))
	for _, id := range blocked {
		blockedSet[id] = struct{}{}
	}

	events := make([]EventResponse, 0, len(saved))
	for _, s := range saved {
		if _, hidden := blockedSet[s.Event.AuthorID]; hidden {
			continue
		}
		events = append(events, newEventResponse(s.Event))
	}
	c.JSON(http.StatusOK, events)
}
