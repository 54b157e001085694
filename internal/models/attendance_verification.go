package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationState is the state of a QR scan audit record.
type VerificationState string

const (
	VerificationPending   VerificationState = "pending"
	VerificationVerified  VerificationState = "verified"
	VerificationCancelled VerificationState = "cancelled"
)

// AttendanceVerification is the append-only audit record produced when a QR
// token is consumed. The unique index on (UserID, EventID) backs the
// at-most-once invariant: a second scan hits the constraint instead of
// inserting a duplicate.
type AttendanceVerification struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	UserID      string            `gorm:"type:uuid;not null;uniqueIndex:idx_verification_user_event"`
	EventID     string            `gorm:"type:uuid;not null;uniqueIndex:idx_verification_user_event"`
	VerifierID  string            `gorm:"type:uuid;not null"`
	QRPayload   string            `gorm:"type:text;not null"`
	State       VerificationState `gorm:"type:varchar(20);not null;default:'pending'"`
	VerifiedAt  time.Time         `gorm:"autoCreateTime"`
	LocationLat *float64
	LocationLng *float64
	Notes       *string `gorm:"type:text"`

	User     User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event    Event `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Verifier User  `gorm:"foreignKey:VerifierID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (v *AttendanceVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
