package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type messageDoc struct {
	UserID    string    `firestore:"userId"`
	Timestamp time.Time `firestore:"timestamp"`
	Type      string    `firestore:"type"`
	Content   string    `firestore:"content,omitempty"`
	FileID    string    `firestore:"fileId,omitempty"`
}

type MessageRepository struct {
	Client *gfs.Client
}

func NewMessageRepository(client *gfs.Client) *MessageRepository {
	return &MessageRepository{Client: client}
}

var _ repository.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) col(chatID string) *gfs.CollectionRef {
	return r.Client.Collection(chatMessagesRoot).Doc(chatID).Collection(messagesCollection)
}

func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) error {
	_, err := r.col(msg.ChatID).Doc(msg.ID).Create(ctx, messageDoc{
		UserID:    msg.UserID,
		Timestamp: msg.Timestamp,
		Type:      string(msg.Type),
		Content:   msg.Content,
		FileID:    msg.FileID,
	})
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *MessageRepository) Latest(ctx context.Context, chatID string, n int) ([]model.Message, error) {
	q := r.col(chatID).OrderBy("timestamp", gfs.Desc).Limit(n)
	return r.queryReversed(ctx, chatID, q)
}

func (r *MessageRepository) Before(ctx context.Context, chatID string, before time.Time, n int) ([]model.Message, error) {
	q := r.col(chatID).Where("timestamp", "<", before).OrderBy("timestamp", gfs.Desc).Limit(n)
	return r.queryReversed(ctx, chatID, q)
}

func (r *MessageRepository) LatestOfType(ctx context.Context, chatID string, t model.MessageType) (*model.Message, error) {
	q := r.col(chatID).Where("type", "==", string(t)).OrderBy("timestamp", gfs.Desc).Limit(1)
	messages, err := r.queryReversed(ctx, chatID, q)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, repository.ErrNotFound
	}
	return &messages[0], nil
}

// queryReversed выполняет запрос по убыванию времени и возвращает по возрастанию.
func (r *MessageRepository) queryReversed(ctx context.Context, chatID string, q gfs.Query) ([]model.Message, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	messages := []model.Message{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}

		var m messageDoc
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", doc.Ref.ID, err)
		}
		messages = append(messages, model.Message{
			ID:        doc.Ref.ID,
			ChatID:    chatID,
			UserID:    m.UserID,
			Timestamp: m.Timestamp,
			Type:      model.MessageType(m.Type),
			Content:   m.Content,
			FileID:    m.FileID,
		})
	}

	slices.Reverse(messages)
	return messages, nil
}
