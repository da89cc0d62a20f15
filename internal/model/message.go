package model

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

type Message struct {
	ID        string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ChatID    string      `gorm:"index:idx_messages_chat_ts,priority:1;not null" json:"chatId"`
	UserID    string      `gorm:"not null" json:"userId"`
	Timestamp time.Time   `gorm:"index:idx_messages_chat_ts,priority:2;not null" json:"timestamp"`
	Type      MessageType `gorm:"type:varchar(16);not null" json:"type"`
	Content   string      `json:"content,omitempty"`
	FileID    string      `json:"fileId,omitempty"`

	// Заполняются при доставке подписчику.
	FileName string `gorm:"-" json:"fileName,omitempty"`
	FileURL  string `gorm:"-" json:"fileUrl,omitempty"`
}

func (m *Message) HasFile() bool {
	return m.Type == MessageTypeImage || m.Type == MessageTypeFile
}

// ScratchMessage запись плоской ленты test/messages.
type ScratchMessage struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Timestamp int64       `json:"timestamp"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
}
