package attendance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"routemeet/backend/internal/models"
	"routemeet/backend/pkg/apperrors"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// Engine issues signed QR payloads binding a user to an event inscription and
// consumes them exactly once, transitioning the inscription's attendance state
// and keeping an append-only audit trail.
type Engine struct {
	db     *gorm.DB
	secret []byte
}

func NewEngine(db *gorm.DB, secret string) *Engine {
	return &Engine{db: db, secret: []byte(secret)}
}

// TokenPayload is the wire format carried inside the QR code.
type TokenPayload struct {
	EventID       string `json:"event_id"`
	UserID        string `json:"user_id"`
	InscriptionID string `json:"inscription_id"`
	Timestamp     string `json:"timestamp"`
	Signature     string `json:"signature"`
}

// IssuedToken is the result of token generation: the raw payload, a scannable
// rendering of it, and the composite inscription identifier.
type IssuedToken struct {
	QRCodeData    string `json:"qr_code_data"`
	QRImageBase64 string `json:"qr_image_base64"`
	InscriptionID string `json:"inscription_id"`
}

// Result reports the outcome of consuming a token. A second scan of an
// already-consumed token is a non-error Result with AlreadyVerified set, so
// operator retries at a gate do not surface as failures.
type Result struct {
	Success         bool   `json:"success"`
	AlreadyVerified bool   `json:"already_verified,omitempty"`
	Message         string `json:"message"`
	UserName        string `json:"user_name,omitempty"`
	EventTitle      string `json:"event_title,omitempty"`
	VerificationID  string `json:"verification_id,omitempty"`
}

// sign computes an HMAC-SHA256 over the payload fields in fixed order. The
// server-held secret makes the signature proof of issuance, not just a
// tamper-evident digest.
func (e *Engine) sign(eventID, userID, inscriptionID, timestamp string) string {
	mac := hmac.New(sha256.New, e.secret)
	fmt.Fprintf(mac, "%s:%s:%s:%s", eventID, userID, inscriptionID, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateToken issues a signed QR payload for a user's inscription to an
// event. The user must already be registered.
func (e *Engine) GenerateToken(eventID, userID string) (*IssuedToken, error) {
	var user models.User
	if err := e.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load user", err)
	}

	var event models.Event
	if err := e.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load event", err)
	}

	var inscription models.Inscription
	err := e.db.First(&inscription, "user_id = ? AND event_id = ?", userID, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotRegistered
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load inscription", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	inscriptionID := fmt.Sprintf("%s_%s", userID, eventID)
	payload := TokenPayload{
		EventID:       eventID,
		UserID:        userID,
		InscriptionID: inscriptionID,
		Timestamp:     timestamp,
		Signature:     e.sign(eventID, userID, inscriptionID, timestamp),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to encode QR payload", err)
	}

	png, err := qrcode.Encode(string(raw), qrcode.Medium, 256)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to render QR image", err)
	}

	return &IssuedToken{
		QRCodeData:    string(raw),
		QRImageBase64: base64.StdEncoding.EncodeToString(png),
		InscriptionID: inscriptionID,
	}, nil
}

// Verify parses and authenticates a scanned payload, then consumes it
// at-most-once: the first scan records an audit row and flips the inscription
// to attended; any later scan reports AlreadyVerified without mutating state.
func (e *Engine) Verify(rawPayload, verifierID string, lat, lng *float64, notes *string) (*Result, error) {
	var payload TokenPayload
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		return nil, apperrors.ErrInvalidQRFormat
	}

	expected := e.sign(payload.EventID, payload.UserID, payload.InscriptionID, payload.Timestamp)
	if !hmac.Equal([]byte(expected), []byte(payload.Signature)) {
		return nil, apperrors.ErrInvalidQRSignature
	}

	var user models.User
	if err := e.db.First(&user, "id = ?", payload.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load user", err)
	}

	var event models.Event
	if err := e.db.First(&event, "id = ?", payload.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load event", err)
	}

	var inscription models.Inscription
	err := e.db.First(&inscription, "user_id = ? AND event_id = ?", payload.UserID, payload.EventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotRegistered
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load inscription", err)
	}

	alreadyVerified := &Result{
		Success:         false,
		AlreadyVerified: true,
		Message:         "this user has already been verified for this event",
		UserName:        user.FullName(),
		EventTitle:      event.Title(),
	}

	var existing models.AttendanceVerification
	err = e.db.First(&existing, "user_id = ? AND event_id = ?", payload.UserID, payload.EventID).Error
	if err == nil {
		return alreadyVerified, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check verification history", err)
	}

	verification := models.AttendanceVerification{
		UserID:      payload.UserID,
		EventID:     payload.EventID,
		VerifierID:  verifierID,
		QRPayload:   rawPayload,
		State:       models.VerificationVerified,
		LocationLat: lat,
		LocationLng: lng,
		Notes:       notes,
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&verification).Error; err != nil {
			return err
		}
		return tx.Model(&models.Inscription{}).
			Where("user_id = ? AND event_id = ?", payload.UserID, payload.EventID).
			Update("attendance", models.AttendanceAttended).Error
	})
	if err != nil {
		// A concurrent scanner won the race between the existence check
		// and the insert; the unique (user, event) index reports it.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return alreadyVerified, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to record verification", err)
	}

	return &Result{
		Success:        true,
		Message:        "attendance verified successfully",
		UserName:       user.FullName(),
		EventTitle:     event.Title(),
		VerificationID: verification.ID,
	}, nil
}

// Record is an audit entry resolved for display.
type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	VerifierID   string    `json:"verifier_id"`
	State        string    `json:"verification_state"`
	VerifiedAt   time.Time `json:"verified_at"`
	LocationLat  *float64  `json:"location_lat,omitempty"`
	LocationLng  *float64  `json:"location_lng,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	UserName     string    `json:"user_name"`
	VerifierName string    `json:"verifier_name"`
	EventTitle   string    `json:"event_title"`
}

// History returns the verification audit trail for an event. Only the event's
// organizer may read it.
func (e *Engine) History(eventID, callerID string) ([]Record, error) {
	var event models.Event
	if err := e.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load event", err)
	}
	if event.AuthorID != callerID {
		return nil, apperrors.ErrNotOrganizer
	}

	var rows []models.AttendanceVerification
	err := e.db.Preload("User").Preload("Verifier").
		Where("event_id = ?", eventID).
		Order("verified_at").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load verification history", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ID:           row.ID,
			UserID:       row.UserID,
			EventID:      row.EventID,
			VerifierID:   row.VerifierID,
			State:        string(row.State),
			VerifiedAt:   row.VerifiedAt,
			LocationLat:  row.LocationLat,
			LocationLng:  row.LocationLng,
			Notes:        row.Notes,
			UserName:     row.User.FullName(),
			VerifierName: row.Verifier.FullName(),
			EventTitle:   event.Title(),
		})
	}
	return records, nil
}
