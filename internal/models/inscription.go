package models

import "time"

// AttendanceState tracks whether a registered user actually showed up.
type AttendanceState string

const (
	AttendanceRegistered   AttendanceState = "registered"
	AttendanceAttended     AttendanceState = "attended"
	AttendanceDidNotAttend AttendanceState = "did_not_attend"
)

// Inscription is a user's registration record for an event.
// The primary key is a composite of (UserID, EventID).
type Inscription struct {
	UserID       string          `gorm:"type:uuid;primaryKey"`
	EventID      string          `gorm:"type:uuid;primaryKey"`
	Attendance   AttendanceState `gorm:"type:varchar(20);not null;default:'registered'"`
	RegisteredAt time.Time       `gorm:"autoCreateTime"`

	User  User  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Event Event `gorm:"foreignKey:EventID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
