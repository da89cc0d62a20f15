// Package storage хранилище файлов комнат: {chatId}/{fileId}/{filename}.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var ErrNotFound = errors.New("object not found")

type Object struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Listing один уровень иерархии: подпапки и объекты.
type Listing struct {
	Prefixes []string
	Items    []Object
}

type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	List(ctx context.Context, prefix string) (*Listing, error)
	URL(ctx context.Context, key string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func ObjectKey(chatID, fileID, filename string) string {
	return path.Join(chatID, fileID, path.Base(filename))
}

func FolderPrefix(chatID, fileID string) string {
	return chatID + "/" + fileID + "/"
}

func ChatPrefix(chatID string) string {
	return chatID + "/"
}

// FolderID последний сегмент префикса "a/b/" -> "b".
func FolderID(prefix string) string {
	return path.Base(strings.TrimSuffix(prefix, "/"))
}

// IsImage png и jpg без учета регистра.
func IsImage(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg":
		return true
	}
	return false
}
