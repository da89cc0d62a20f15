package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/caption"
	"tush00nka/captionchat/internal/pkg/storage"
	"tush00nka/captionchat/internal/repository"
)

type catalogService struct {
	chats    ChatService
	messages repository.MessageRepository
	captions repository.CaptionRepository
	files    storage.FileStore
}

func NewCatalogService(
	chats ChatService,
	messages repository.MessageRepository,
	captions repository.CaptionRepository,
	files storage.FileStore,
) CatalogService {
	return &catalogService{chats: chats, messages: messages, captions: captions, files: files}
}

// GetCatalogsData превью последнего изображения каждой комнаты пользователя.
// Комнаты без изображений и с ошибками чтения пропускаются.
func (s *catalogService) GetCatalogsData(ctx context.Context, userID string) ([]model.CatalogEntry, error) {
	rooms, err := s.chats.GetChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]model.CatalogEntry, 0, len(rooms))
	for _, room := range rooms {
		msg, err := s.messages.LatestOfType(ctx, room.ID, model.MessageTypeImage)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("catalog: failed to find latest image in %s: %v", room.ID, err)
			continue
		}

		listing, err := s.files.List(ctx, storage.FolderPrefix(room.ID, msg.FileID))
		if err != nil || len(listing.Items) == 0 {
			log.Printf("catalog: no stored file for %s/%s: %v", room.ID, msg.FileID, err)
			continue
		}

		url, err := s.files.URL(ctx, listing.Items[0].Key)
		if err != nil {
			log.Printf("catalog: failed to resolve thumbnail for %s: %v", room.ID, err)
			continue
		}

		entries = append(entries, model.CatalogEntry{
			ChatID:       room.ID,
			ChatName:     room.Name,
			FileID:       msg.FileID,
			ThumbnailURL: url,
		})
	}
	return entries, nil
}

// ListAllImages все png/jpg комнаты с подписями; без подписи ставится caption.Fallback.
func (s *catalogService) ListAllImages(ctx context.Context, chatID string) ([]model.GalleryImage, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}

	root, err := s.files.List(ctx, storage.ChatPrefix(chatID))
	if err != nil {
		return nil, fmt.Errorf("failed to list chat files: %w", err)
	}

	captions, err := s.captions.ListForChat(ctx, chatID)
	if err != nil {
		log.Printf("gallery: failed to load captions for %s: %v", chatID, err)
		captions = map[string]string{}
	}

	images := make([]model.GalleryImage, 0, len(root.Prefixes))
	for _, prefix := range root.Prefixes {
		folder, err := s.files.List(ctx, prefix)
		if err != nil {
			log.Printf("gallery: failed to list %s: %v", prefix, err)
			continue
		}
		if len(folder.Items) == 0 || !storage.IsImage(folder.Items[0].Name) {
			continue
		}

		item := folder.Items[0]
		url, err := s.files.URL(ctx, item.Key)
		if err != nil {
			log.Printf("gallery: failed to resolve url for %s: %v", item.Key, err)
			continue
		}

		fileID := storage.FolderID(prefix)
		text, ok := captions[fileID]
		if !ok {
			text = caption.Fallback
		}

		images = append(images, model.GalleryImage{
			FileID:  fileID,
			Title:   item.Name,
			Key:     item.Key,
			URL:     url,
			Caption: text,
		})
	}
	return images, nil
}

// DownloadSelected передает выбранные файлы в sink. Ключи вне комнаты и ошибки чтения пропускаются,
// ошибка sink прерывает выгрузку. Возвращает число переданных файлов.
func (s *catalogService) DownloadSelected(
	ctx context.Context,
	chatID string,
	keys []string,
	sink func(name string, r io.Reader) error,
) (int, error) {
	if chatID == "" {
		return 0, ErrInvalidID
	}

	prefix := storage.ChatPrefix(chatID)
	sent := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") {
			log.Printf("download: key %q is outside chat %s", key, chatID)
			continue
		}

		rc, err := s.files.Open(ctx, key)
		if err != nil {
			log.Printf("download: failed to open %s: %v", key, err)
			continue
		}

		err = sink(strings.TrimPrefix(key, prefix), rc)
		rc.Close()
		if err != nil {
			return sent, fmt.Errorf("failed to write %s: %w", key, err)
		}
		sent++
	}
	return sent, nil
}
