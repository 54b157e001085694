package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/friendship"
	"routemeet/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

type EventInput struct {
	Text      string   `json:"text" binding:"required"`
	Type      string   `json:"type"`
	Privacy   string   `json:"privacy"`
	EventDate string   `json:"event_date"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type EventResponse struct {
	ID        string             `json:"id"`
	Text      string             `json:"text"`
	Type      string             `json:"type"`
	Privacy   string             `json:"privacy"`
	Status    string             `json:"status"`
	EventDate *time.Time         `json:"event_date,omitempty"`
	Latitude  *float64           `json:"latitude,omitempty"`
	Longitude *float64           `json:"longitude,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Author    PublicUserResponse `json:"author"`
}

func newEventResponse(event models.Event) EventResponse {
	return EventResponse{
		ID:        event.ID,
		Text:      event.Text,
		Type:      string(event.Type),
		Privacy:   string(event.Privacy),
		Status:    string(event.Status),
		EventDate: event.EventDate,
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
		CreatedAt: event.CreatedAt,
		Author:    buildPublicUserResponse(event.Author),
	}
}

// endregion

// CreateEvent godoc
// @Summary      Create an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body EventInput true "Event Info"
// @Success      201  {object}  EventResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /events [post]
func CreateEvent(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := models.Event{
		AuthorID: userID.(string),
		Text:     input.Text,
	}
	if input.Type != "" {
		event.Type = models.EventType(input.Type)
	}
	if input.Privacy != "" {
		event.Privacy = models.EventPrivacy(input.Privacy)
	}
	if input.EventDate != "" {
		eventDate, err := time.Parse(time.RFC3339, input.EventDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event date, expected RFC 3339"})
			return
		}
		event.EventDate = &eventDate
	}
	event.Latitude = input.Latitude
	event.Longitude = input.Longitude

	if err := database.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	database.DB.Preload("Author").First(&event, "id = ?", event.ID)
	c.JSON(http.StatusCreated, newEventResponse(event))
}

// GetEvents godoc
// @Summary      List events
// @Description  Gets a paginated list of events. For authenticated viewers,
// @Description  events authored by users with a blocked relationship against
// @Description  them are excluded in both directions.
// @Tags         events
// @Produce      json
// @Param        page   query  int  false  "Page number" default(1)
// @Param        limit  query  int  false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[EventResponse]
// @Router       /events [get]
func GetEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	// Anonymous viewers see the unfiltered feed.
	var blocked []string
	if viewerID, ok := c.Get("userID"); ok {
		var err error
		blocked, err = friendship.NewManager(database.DB).BlockedIDs(viewerID.(string))
		if err != nil {
			respondError(c, err)
			return
		}
	}

	query := database.DB.Model(&models.Event{}).Preload("Author").Order("created_at DESC")
	if len(blocked) > 0 {
		query = query.Where("author_id NOT IN ?", blocked)
	}

	result, err := Paginate[models.Event](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	events := make([]EventResponse, 0, len(result.Data))
	for _, event := range result.Data {
		events = append(events, newEventResponse(event))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(events, result.Meta.TotalItems, page, limit))
}

// GetEventByID godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  EventResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /events/{id} [get]
func GetEventByID(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	var event models.Event
	if err := database.DB.Preload("Author").First(&event, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	c.JSON(http.StatusOK, newEventResponse(event))
}

// GetUserEvents godoc
// @Summary      List a user's events
// @Tags         events
// @Produce      json
// @Param        id  path  string  true  "Author's user ID"
// @Success      200  {array}  EventResponse
// @Router       /events/user/{id} [get]
func GetUserEvents(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	var rows []models.Event
	err := database.DB.Preload("Author").
		Where("author_id = ?", id).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	events := make([]EventResponse, 0, len(rows))
	for _, event := range rows {
		events = append(events, newEventResponse(event))
	}
	c.JSON(http.StatusOK, events)
}

// RegisterForEvent godoc
// @Summary      Register for an event
// @Description  Creates the inscription the QR attendance flow later validates.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Event ID"
// @Success      201  {object}  map[string]string "{"message": "Registered"}"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already registered"
// @Router       /events/{id}/register [post]
func RegisterForEvent(c *gin.Context) {
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

	inscription := models.Inscription{
		UserID:     userID.(string),
		EventID:    eventID,
		Attendance: models.AttendanceRegistered,
	}
	if err := database.DB.Create(&inscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Already registered for this event"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registered"})
}

// UnregisterFromEvent godoc
// @Summary      Unregister from an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]string "{"message": "Unregistered"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /events/{id}/register [delete]
func UnregisterFromEvent(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("id")
	if !validUUID(c, eventID) {
		return
	}

	result := database.DB.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&models.Inscription{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unregister"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not registered for this event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unregistered"})
}
