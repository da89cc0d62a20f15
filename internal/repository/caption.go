package repository

import (
	"context"
	"fmt"

	"tush00nka/captionchat/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type captionRepository struct {
	db *gorm.DB
}

func NewCaptionRepository(db *gorm.DB) CaptionRepository {
	return &captionRepository{db: db}
}

func (r *captionRepository) Upsert(ctx context.Context, caption *model.Caption) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(caption).Error
	if err != nil {
		return fmt.Errorf("failed to store caption: %w", err)
	}
	return nil
}

func (r *captionRepository) ListForChat(ctx context.Context, chatID string) (map[string]string, error) {
	var captions []model.Caption
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Find(&captions).Error; err != nil {
		return nil, fmt.Errorf("failed to list captions: %w", err)
	}

	out := make(map[string]string, len(captions))
	for _, c := range captions {
		out[c.FileID] = c.Text
	}
	return out, nil
}
