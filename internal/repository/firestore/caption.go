package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type captionDoc struct {
	Caption   string    `firestore:"caption"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type CaptionRepository struct {
	Client *gfs.Client
}

func NewCaptionRepository(client *gfs.Client) *CaptionRepository {
	return &CaptionRepository{Client: client}
}

var _ repository.CaptionRepository = (*CaptionRepository)(nil)

func (r *CaptionRepository) col(chatID string) *gfs.CollectionRef {
	return r.Client.Collection(chatRoomsCollection).Doc(chatID).Collection(captionsCollection)
}

func (r *CaptionRepository) Upsert(ctx context.Context, caption *model.Caption) error {
	_, err := r.col(caption.ChatID).Doc(caption.FileID).Set(ctx, captionDoc{
		Caption:   caption.Text,
		UpdatedAt: caption.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to store caption: %w", err)
	}
	return nil
}

func (r *CaptionRepository) ListForChat(ctx context.Context, chatID string) (map[string]string, error) {
	iter := r.col(chatID).Documents(ctx)
	defer iter.Stop()

	out := map[string]string{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list captions: %w", err)
		}
		var c captionDoc
		if err := doc.DataTo(&c); err != nil {
			continue
		}
		out[doc.Ref.ID] = c.Caption
	}
	return out, nil
}
