package model

import (
	"slices"
	"time"
)

const DefaultChatName = "New chat room"

type ChatRoom struct {
	ID                   string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name                 string            `gorm:"not null" json:"name"`
	LastMessage          string            `json:"lastMessage"`
	LastMessageTimestamp time.Time         `gorm:"index" json:"lastMessageTimestamp"`
	Members              []string          `gorm:"-" json:"members"`
	Administrators       []string          `gorm:"-" json:"administrators"`
	MemberNames          map[string]string `gorm:"-" json:"memberNames,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

func (c *ChatRoom) IsMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

func (c *ChatRoom) IsAdmin(userID string) bool {
	return slices.Contains(c.Administrators, userID)
}

// ChatMember строка таблицы участников; Name дублирует memberNames.
type ChatMember struct {
	ChatID    string `gorm:"primaryKey;type:varchar(64)"`
	UserID    string `gorm:"primaryKey;type:varchar(64);index"`
	IsAdmin   bool   `gorm:"not null;default:false"`
	Name      string
	CreatedAt time.Time
}

type Member struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}
