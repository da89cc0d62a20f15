package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"tush00nka/captionchat/internal/model"

	"github.com/redis/go-redis/v9"
)

// ScratchKey хэш плоской ленты, поле = id записи.
const ScratchKey = "test/messages"

type scratchRepository struct {
	rdb *redis.Client
}

func NewScratchRepository(rdb *redis.Client) ScratchRepository {
	return &scratchRepository{rdb: rdb}
}

func (r *scratchRepository) Add(ctx context.Context, msg model.ScratchMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := r.rdb.HSet(ctx, ScratchKey, msg.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save message to redis: %w", err)
	}
	return nil
}

func (r *scratchRepository) List(ctx context.Context) ([]model.ScratchMessage, error) {
	values, err := r.rdb.HGetAll(ctx, ScratchKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from redis: %w", err)
	}

	messages := make([]model.ScratchMessage, 0, len(values))
	for field, v := range values {
		var msg model.ScratchMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			log.Printf("scratch: skipping malformed entry %s: %v", field, err)
			continue
		}
		messages = append(messages, msg)
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

func (r *scratchRepository) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, ScratchKey).Err(); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}
