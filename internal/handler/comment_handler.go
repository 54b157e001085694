package handler

import (
	"net/http"
	"regexp"
	"time"

	"routemeet/backend/internal/database"
	"routemeet/backend/internal/models"
	"routemeet/backend/internal/notify"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// CommentInput creates a comment; a non-nil parent_id makes it a reply.
type CommentInput struct {
	Text     string  `json:"text" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CommentResponse is a comment with its author resolved. Top-level comments
// carry their replies inline.
type CommentResponse struct {
	ID             string            `json:"id"`
	EventID        string            `json:"event_id"`
	AuthorID       string            `json:"author_id"`
	AuthorName     string            `json:"author_name"`
	AuthorUsername string            `json:"author_username"`
	AuthorPhotoURL string            `json:"author_photo_url,omitempty"`
	Text           string            `json:"text"`
	ParentID       *string           `json:"parent_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Mentions       []string          `json:"mentions"`
	Replies        []CommentResponse `json:"replies"`
}

func newCommentResponse(comment models.Comment, replies []CommentResponse) CommentResponse {
	if replies == nil {
		replies = []CommentResponse{}
	}
	return CommentResponse{
		ID:             comment.ID,
		EventID:        comment.EventID,
		AuthorID:       comment.AuthorID,
		AuthorName:     comment.Author.FullName(),
		AuthorUsername: comment.Author.Username,
		AuthorPhotoURL: comment.Author.PhotoURL,
		Text:           comment.Text,
		ParentID:       comment.ParentID,
		CreatedAt:      comment.CreatedAt,
		Mentions:       extractMentions(comment.Text),
		Replies:        replies,
	}
}

// endregion

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentions returns the distinct @usernames in a comment text, in order
// of first appearance.
func extractMentions(text string) []string {
	seen := map[string]struct{}{}
	mentions := []string{}
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		username := match[1]
		if _, dup := seen[username]; dup {
			continue
		}
		seen[username] = struct{}{}
		mentions = append(mentions, username)
	}
	return mentions
}

// GetEventComments godoc
// @Summary      List an event's comments
// @Description  Returns top-level comments with their replies nested.
// @Tags         comments
// @Produce      json
// @Param        event_id  path  string  true  "Event ID"
// @Success      200  {array}   CommentResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/event/{event_id} [get]
func GetEventComments(c *gin.Context) {
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var rows []models.Comment
	err := database.DB.Preload("Author").
		Where("event_id = ?", eventID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	// One query, bucketed in Go: replies grouped under their parent.
	repliesByParent := map[string][]CommentResponse{}
	for _, row := range rows {
		if row.ParentID != nil {
			repliesByParent[*row.ParentID] = append(repliesByParent[*row.ParentID], newCommentResponse(row, nil))
		}
	}

	comments := []CommentResponse{}
	for _, row := range rows {
		if row.ParentID == nil {
			comments = append(comments, newCommentResponse(row, repliesByParent[row.ID]))
		}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment godoc
// @Summary      Comment on an event
// @Description  Creates a comment or, with parent_id, a reply. Mentioned users
// @Description  and the parent comment's author are notified.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string        true  "Event ID"
// @Param        input     body  CommentInput  true  "Comment text and optional parent"
// @Success      201  {object}  CommentResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Event or parent comment not found"
// @Router       /comments/event/{event_id} [post]
func CreateComment(c *gin.Context) {
	userID, _ := c.Get("userID")
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var parent *models.Comment
	if input.ParentID != nil {
		if !validUUID(c, *input.ParentID) {
			return
		}
		parent = &models.Comment{}
		if err := database.DB.First(parent, "id = ?", *input.ParentID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
			return
		}
	}

	comment := models.Comment{
		EventID:  eventID,
		AuthorID: userID.(string),
		ParentID: input.ParentID,
		Text:     input.Text,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	var author models.User
	if err := database.DB.First(&author, "id = ?", comment.AuthorID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comment author"})
		return
	}
	comment.Author = author

	dispatcher := notify.NewDispatcher(database.DB)
	for _, username := range extractMentions(comment.Text) {
		var mentioned models.User
		if err := database.DB.First(&mentioned, "username = ?", username).Error; err != nil {
			continue
		}
		if mentioned.ID == author.ID {
			continue
		}
		dispatcher.Mention(mentioned.ID, author.ID, author.Username, eventID, comment.ID)
	}
	if parent != nil && parent.AuthorID != author.ID {
		dispatcher.Reply(parent.AuthorID, author.ID, author.Username, eventID, comment.ID)
	}

	c.JSON(http.StatusCreated, newCommentResponse(comment, nil))
}

// GetComment godoc
// @Summary      Get a comment
// @Tags         comments
// @Produce      json
// @Param        id  path  string  true  "Comment ID"
// @Success      200  {object}  CommentResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/{id} [get]
func GetComment(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	var comment models.Comment
	if err := database.DB.Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment, nil))
}

// DeleteComment godoc
// @Summary      Delete a comment
// @Description  Deletes a comment and its replies. Only the author may delete.
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Comment ID"
// @Success      200  {object}  map[string]string "{"message": "Comment deleted"}"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /comments/{id} [delete]
func DeleteComment(c *gin.Context) {
	userID, _ := c.Get("userID")
	id := c.Param("id")
	if !validUUID(c, id) {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if comment.AuthorID != userID.(string) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete this comment"})
		return
	}

	// Replies go with the parent.
	err := database.DB.Where("id = ? OR parent_id = ?", id, id).Delete(&models.Comment{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
