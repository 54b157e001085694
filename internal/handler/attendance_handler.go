package handler

import (
	"net/http"

	"routemeet/backend/internal/attendance"
	"routemeet/backend/internal/config"
	"routemeet/backend/internal/database"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// VerifyQRInput carries a scanned payload plus scan context. Field names
// match the mobile client's wire contract.
type VerifyQRInput struct {
	QRData      string   `json:"qr_data" binding:"required"`
	VerifierID  string   `json:"verificador_id" binding:"required"`
	LocationLat *float64 `json:"ubicacion_lat"`
	LocationLng *float64 `json:"ubicacion_lng"`
	Notes       *string  `json:"notas"`
}

// endregion

func engine() *attendance.Engine {
	return attendance.NewEngine(database.DB, config.AppConfig.QRSecret)
}

// GenerateQR godoc
// @Summary      Generate attendance QR code
// @Description  Issues a signed QR payload for a user's inscription to an event.
// @Tags         qr-attendance
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string  true  "Event ID"
// @Param        user_id   path  string  true  "User ID"
// @Success      200  {object}  attendance.IssuedToken
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User, event or inscription not found"
// @Router       /qr-attendance/generate-qr/{event_id}/{user_id} [post]
func GenerateQR(c *gin.Context) {
	eventID := c.Param("event_id")
	userID := c.Param("user_id")
	if !validUUID(c, eventID, userID) {
		return
	}

	token, err := engine().GenerateToken(eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// VerifyQR godoc
// @Summary      Verify attendance QR code
// @Description  Consumes a scanned payload at most once and records the attendance.
// @Tags         qr-attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body VerifyQRInput true "Scanned payload and scan context"
// @Success      200  {object}  attendance.Result
// @Failure      400  {object}  ErrorResponse "Malformed or tampered payload"
// @Failure      404  {object}  ErrorResponse
// @Router       /qr-attendance/verify-qr [post]
func VerifyQR(c *gin.Context) {
	var input VerifyQRInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validUUID(c, input.VerifierID) {
		return
	}

	result, err := engine().Verify(input.QRData, input.VerifierID, input.LocationLat, input.LocationLng, input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAttendanceHistory godoc
// @Summary      Get attendance verification history
// @Description  Returns the audit trail for an event. Organizer only.
// @Tags         qr-attendance
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string  true  "Event ID"
// @Success      200  {array}   attendance.Record
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /qr-attendance/historial/{event_id} [get]
func GetAttendanceHistory(c *gin.Context) {
	callerID, _ := c.Get("userID")
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	records, err := engine().History(eventID, callerID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetAttendanceStatistics godoc
// @Summary      Get attendance statistics
// @Description  Returns aggregate attendance figures for an event. Organizer only.
// @Tags         qr-attendance
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path  string  true  "Event ID"
// @Success      200  {object}  attendance.Stats
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /qr-attendance/estadisticas/{event_id} [get]
func GetAttendanceStatistics(c *gin.Context) {
	callerID, _ := c.Get("userID")
	eventID := c.Param("event_id")
	if !validUUID(c, eventID) {
		return
	}

	stats, err := engine().Statistics(eventID, callerID.(string))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
