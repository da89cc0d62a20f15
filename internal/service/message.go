package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/pkg/storage"
	"tush00nka/captionchat/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultWindow   = 25
	MaxWindow       = 200
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// fileIDPattern один сегмент ключа хранилища: {chatId}/{fileId}/{filename}.
var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type messageService struct {
	rooms    repository.ChatRoomRepository
	messages repository.MessageRepository
	captions repository.CaptionRepository
	files    storage.FileStore
	broker   realtime.Broker
	stamper  *Stamper
}

func NewMessageService(
	rooms repository.ChatRoomRepository,
	messages repository.MessageRepository,
	captions repository.CaptionRepository,
	files storage.FileStore,
	broker realtime.Broker,
) MessageService {
	return &messageService{
		rooms:    rooms,
		messages: messages,
		captions: captions,
		files:    files,
		broker:   broker,
		stamper:  NewStamper(time.Microsecond),
	}
}

// SubscribeChatMessages отдает последние window сообщений по возрастанию времени при каждом изменении.
func (s *messageService) SubscribeChatMessages(ctx context.Context, chatID string, window int, fn func([]model.Message)) (Subscription, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}
	window = clamp(window, DefaultWindow, MaxWindow)

	load := func(ctx context.Context) ([]model.Message, error) {
		msgs, err := s.messages.Latest(ctx, chatID, window)
		if err != nil {
			return nil, err
		}
		if msgs == nil {
			msgs = []model.Message{}
		}
		s.resolveFiles(ctx, msgs)
		return msgs, nil
	}

	return subscribe(ctx, s.broker, realtime.ChatMessagesTopic(chatID), "chat_messages", load, fn)
}

// GetMessages страница истории до before (нулевое значение: последние сообщения).
func (s *messageService) GetMessages(ctx context.Context, chatID string, before time.Time, limit int) ([]model.Message, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}
	limit = clamp(limit, DefaultPageSize, MaxPageSize)

	var (
		msgs []model.Message
		err  error
	)
	if before.IsZero() {
		msgs, err = s.messages.Latest(ctx, chatID, limit)
	} else {
		msgs, err = s.messages.Before(ctx, chatID, before, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	s.resolveFiles(ctx, msgs)
	return msgs, nil
}

func (s *messageService) SendTextMessage(ctx context.Context, chatID, userID, displayName, content string) (*model.Message, error) {
	if chatID == "" || userID == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.ensureRoom(ctx, chatID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		Timestamp: s.stamper.Next(),
		Type:      model.MessageTypeText,
		Content:   content,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	preview := fmt.Sprintf("%s: %s", displayName, content)
	if err := s.rooms.UpdateLastMessage(ctx, chatID, preview, msg.Timestamp); err != nil {
		return nil, s.projectionError(err)
	}

	s.notify(ctx, chatID)
	return msg, nil
}

// SendFile сначала загружает файл, затем пишет сообщение; при ошибке записи загрузка удаляется.
func (s *messageService) SendFile(
	ctx context.Context,
	chatID, userID, displayName, fileID string,
	upload model.Upload,
	isImage bool,
) (*model.Message, error) {
	if chatID == "" || userID == "" {
		return nil, ErrInvalidID
	}
	if upload.Body == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, ErrInvalidFile
	}

	if fileID != "" && !fileIDPattern.MatchString(fileID) {
		return nil, ErrInvalidFileID
	}
	if err := s.ensureRoom(ctx, chatID); err != nil {
		return nil, err
	}

	ts := s.stamper.Next()
	if fileID == "" {
		fileID = fmt.Sprintf("%d-%s", ts.UnixMilli(), uuid.NewString()[:8])
	}
	folder, err := s.files.List(ctx, storage.FolderPrefix(chatID, fileID))
	if err != nil {
		return nil, fmt.Errorf("failed to check file id: %w", err)
	}
	if len(folder.Items) > 0 || len(folder.Prefixes) > 0 {
		return nil, ErrFileIDInUse
	}

	filename := path.Base(upload.Filename)
	key := storage.ObjectKey(chatID, fileID, filename)

	if err := s.files.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	msgType := model.MessageTypeFile
	if isImage {
		msgType = model.MessageTypeImage
	}
	msg := &model.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		Timestamp: ts,
		Type:      msgType,
		FileID:    fileID,
		FileName:  filename,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			log.Printf("send file: failed to remove orphan upload %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if err := s.rooms.UpdateLastMessage(ctx, chatID, filename, ts); err != nil {
		return nil, s.projectionError(err)
	}

	if url, err := s.files.URL(ctx, key); err == nil {
		msg.FileURL = url
	}

	log.Printf("user %s (%s) sent %s %s to chat %s", userID, displayName, msgType, key, chatID)
	s.notify(ctx, chatID)
	return msg, nil
}

func (s *messageService) StoreImageCaption(ctx context.Context, chatID, fileID, caption string) error {
	if chatID == "" || fileID == "" {
		return ErrInvalidID
	}
	if !fileIDPattern.MatchString(fileID) {
		return ErrInvalidFileID
	}

	err := s.captions.Upsert(ctx, &model.Caption{
		ChatID:    chatID,
		FileID:    fileID,
		Text:      caption,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to store caption: %w", err)
	}
	return nil
}

// resolveFiles подставляет имя файла и ссылку; сбой одного сообщения не мешает остальным.
func (s *messageService) resolveFiles(ctx context.Context, msgs []model.Message) {
	for i := range msgs {
		msg := &msgs[i]
		if !msg.HasFile() || msg.FileID == "" {
			continue
		}

		listing, err := s.files.List(ctx, storage.FolderPrefix(msg.ChatID, msg.FileID))
		if err != nil {
			log.Printf("failed to list files for message %s: %v", msg.ID, err)
			continue
		}
		if len(listing.Items) == 0 {
			log.Printf("no stored file for message %s", msg.ID)
			continue
		}

		item := listing.Items[0]
		msg.FileName = item.Name
		url, err := s.files.URL(ctx, item.Key)
		if err != nil {
			log.Printf("failed to resolve url for %s: %v", item.Key, err)
			continue
		}
		msg.FileURL = url
	}
}

func (s *messageService) notify(ctx context.Context, chatID string) {
	publish(ctx, s.broker, realtime.ChatMessagesTopic(chatID))
	notifyRoomMembers(ctx, s.rooms, s.broker, chatID)
}

// ensureRoom не дает записать сообщение или файл в несуществующую комнату.
func (s *messageService) ensureRoom(ctx context.Context, chatID string) error {
	_, err := s.rooms.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrChatNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get chat room: %w", err)
	}
	return nil
}

func (s *messageService) projectionError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrChatNotFound
	}
	return fmt.Errorf("failed to update last message: %w", err)
}

func clamp(n, def, upper int) int {
	if n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}
