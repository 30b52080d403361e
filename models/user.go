package models

import (
	"time"
)

// Role is the account type. Only the two listed values are accepted at the
// boundary; anything else is rejected before persistence.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// Gender is optional on registration but closed when present.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Role           Role   `gorm:"size:16;not null;index"`
	Name           string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte `gorm:"not null"`
	Phone          string `gorm:"size:64"`
	DateOfBirth    *time.Time
	Gender         Gender `gorm:"size:16"`
	ProfileImage   string `gorm:"size:512"`
	Verified       bool   `gorm:"default:false;not null"`
	// Active is the soft-deactivation switch; accounts are never hard-deleted.
	Active bool `gorm:"default:true;not null"`

	// Doctor-only fields, zero-valued for patients.
	Specialization  string   `gorm:"size:255"`
	LicenseDocument string   `gorm:"size:512"`
	Degrees         []string `gorm:"serializer:json"`
	Experience      int
	ConsultationFee int64
	FollowUpFee     int64
	About           string  `gorm:"size:2048"`
	Location        string  `gorm:"size:255"`
	Rating          float64 `gorm:"default:0"`
	ReviewCount     int     `gorm:"default:0"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// PublicUser is the projection returned by the API. The password hash is not
// part of it and must never be.
type PublicUser struct {
	ID       uint   `json:"id"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Verified bool   `json:"isVerified"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Verified: u.Verified,
	}
}
