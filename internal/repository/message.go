package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"tush00nka/captionchat/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *messageRepository) Latest(ctx context.Context, chatID string, n int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (r *messageRepository) Before(ctx context.Context, chatID string, before time.Time, n int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND timestamp < ?", chatID, before).
		Order("timestamp DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get messages page: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

func (r *messageRepository) LatestOfType(ctx context.Context, chatID string, t model.MessageType) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND type = ?", chatID, t).
		Order("timestamp DESC").
		First(&msg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}
