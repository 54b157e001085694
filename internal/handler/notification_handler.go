package handler

import (
	"net/http"
	"strconv"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// NotificationResponse is a notification as returned to the inbox view.
type NotificationResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	EventID   *string   `json:"event_id,omitempty"`
	CommentID *string   `json:"comment_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// GetNotifications godoc
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page number" default(1)
// @Param        limit  query  int  false  "Items per page" default(20)
// @Success      200  {object}  PaginatedResponse[NotificationResponse]
// @Router       /notifications [get]
func GetNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	query := database.DB.Model(&models.Notification{}).
		Where("recipient_id = ?", userID).
		Order("created_at DESC")

	result, err := Paginate[models.Notification](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	notifications := make([]NotificationResponse, 0, len(result.Data))
	for _, n := range result.Data {
		notifications = append(notifications, NotificationResponse{
			ID:        n.ID,
			SenderID:  n.SenderID,
			EventID:   n.EventID,
			CommentID: n.CommentID,
			Type:      string(n.Type),
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(notifications, result.Meta.TotalItems, page, limit))
}

// GetUnreadCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"unread": 3}"
// @Router       /notifications/unread-count [get]
func GetUnreadCount(c *gin.Context) {
	userID, _ := c.Get("userID")

	var count int64
	err := database.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationRead godoc
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Notification ID"
// @Success      200  {object}  map[string]string "{"message": "Notification marked as read"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
func MarkNotificationRead(c *gin.Context) {
	userID, _ := c.Get("userID")
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead godoc
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "All notifications marked as read"}"
// @Router       /notifications/read-all [put]
func MarkAllNotificationsRead(c *gin.Context) {
	userID, _ := c.Get("userID")

	err := database.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
