package domain

import (
	"time"
)

type User struct {
	ID           uint64
	Name         string
	Email        string `gorm:"uniqueIndex;size:255"`
	Password     string `gorm:"-"` // input only, not stored in db
	PasswordHash string
	IsActive     bool `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Projects     []Project `gorm:"constraint:OnDelete:CASCADE"`
}

// SafeUser is a User without credentials
type SafeUser struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

func (u *User) ToSafeUser() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}
}
