package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender of a user, used by the attendance statistics breakdown.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// User represents a user in the system.
type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Username     string `gorm:"size:50;unique;not null;index"`
	Email        string `gorm:"size:255;unique;not null;index"`
	PasswordHash string `gorm:"size:255;not null"`
	FirstName    string `gorm:"size:100;not null"`
	LastName     string `gorm:"size:100;not null"`
	BirthDate    *time.Time
	Gender       Gender `gorm:"size:20"`
	PhotoURL     string
	Bio          string `gorm:"size:160"`
	Latitude     *float64
	Longitude    *float64
	City         string `gorm:"size:100"`
	Country      string `gorm:"size:100"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
	Verified     bool   `gorm:"default:false"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// FullName is the display form used in verification responses.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
