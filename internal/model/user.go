package model

import (
	"strings"
	"time"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

func (u *User) SanitizePassword() {
	u.PasswordHash = ""
}

// EnsureDisplayName подставляет имя из email, если оно не задано.
func (u *User) EnsureDisplayName() {
	if strings.TrimSpace(u.DisplayName) == "" {
		u.DisplayName = DisplayNameFromEmail(u.Email)
	}
}

func (u *User) Public() SessionUser {
	return SessionUser{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// DisplayNameFromEmail: "john.doe@x.io" -> "john doe".
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.ReplaceAll(local, ".", " ")
}
