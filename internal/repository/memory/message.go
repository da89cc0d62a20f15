package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type MessageRepository struct {
	mu     sync.RWMutex
	byChat map[string][]model.Message

	// AppendErr, если задан, возвращается из Append.
	AppendErr error
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{byChat: make(map[string][]model.Message)}
}

func (r *MessageRepository) Append(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.AppendErr != nil {
		return r.AppendErr
	}

	list := append(r.byChat[msg.ChatID], *msg)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	r.byChat[msg.ChatID] = list
	return nil
}

func (r *MessageRepository) Latest(_ context.Context, chatID string, n int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byChat[chatID]
	if n < len(list) {
		list = list[len(list)-n:]
	}
	return append([]model.Message{}, list...), nil
}

func (r *MessageRepository) Before(_ context.Context, chatID string, before time.Time, n int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byChat[chatID]
	end := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(before) })
	start := max(end-n, 0)
	return append([]model.Message{}, list[start:end]...), nil
}

func (r *MessageRepository) LatestOfType(_ context.Context, chatID string, t model.MessageType) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byChat[chatID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Type == t {
			msg := list[i]
			return &msg, nil
		}
	}
	return nil, repository.ErrNotFound
}
