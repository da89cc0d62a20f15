package model

import (
	"io"
	"time"
)

// Upload входящий файл до записи в хранилище.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FileMetadata struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	UploadedBy  string    `json:"uploadedBy"`
	ChatID      string    `json:"chatId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Caption struct {
	ChatID    string    `gorm:"primaryKey;type:varchar(64)" json:"chatId"`
	FileID    string    `gorm:"primaryKey;type:varchar(128)" json:"fileId"`
	Text      string    `gorm:"not null" json:"caption"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CatalogEntry struct {
	ChatID       string `json:"chatId"`
	ChatName     string `json:"chatName"`
	FileID       string `json:"fileId"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type GalleryImage struct {
	FileID  string `json:"fileId"`
	Title   string `json:"title"`
	Key     string `json:"key"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}
