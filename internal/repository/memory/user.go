// Package memory держит все данные в памяти процесса: для тестов и STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.ChatRoomRepository = (*ChatRoomRepository)(nil)
	_ repository.MessageRepository  = (*MessageRepository)(nil)
	_ repository.CaptionRepository  = (*CaptionRepository)(nil)
	_ repository.SessionRepository  = (*SessionRepository)(nil)
	_ repository.ScratchRepository  = (*ScratchRepository)(nil)
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = repository.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[user.Email]; taken {
		return repository.ErrEmailTaken
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *UserRepository) UpdateDisplayName(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.DisplayName = name
	r.byID[id] = user
	return nil
}
