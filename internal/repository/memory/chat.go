package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type ChatRoomRepository struct {
	mu        sync.RWMutex
	rooms     map[string]*model.ChatRoom
	userRooms map[string][]string // userID -> chatIDs, как users/{uid}.chatRooms
	lookups   int
}

func NewChatRoomRepository() *ChatRoomRepository {
	return &ChatRoomRepository{
		rooms:     make(map[string]*model.ChatRoom),
		userRooms: make(map[string][]string),
	}
}

// Lookups число вызовов GetByIDs.
func (r *ChatRoomRepository) Lookups() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookups
}

// IndexRoom добавляет room id в индекс пользователя без изменения самой комнаты.
func (r *ChatRoomRepository) IndexRoom(userID, chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index(userID, chatID)
}

func (r *ChatRoomRepository) Create(_ context.Context, room *model.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneRoom(room)
	if stored.MemberNames == nil {
		stored.MemberNames = map[string]string{}
	}
	r.rooms[room.ID] = stored
	for _, id := range room.Members {
		r.index(id, room.ID)
	}
	return nil
}

func (r *ChatRoomRepository) GetByID(_ context.Context, id string) (*model.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (r *ChatRoomRepository) GetByIDs(_ context.Context, ids []string) ([]model.ChatRoom, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()

	if len(ids) > repository.MaxInClause {
		return nil, repository.ErrTooManyIDs
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ChatRoom, 0, len(ids))
	for _, id := range ids {
		if room, ok := r.rooms[id]; ok {
			out = append(out, *cloneRoom(room))
		}
	}
	return out, nil
}

func (r *ChatRoomRepository) RoomIDsForUser(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.userRooms[userID]), nil
}

func (r *ChatRoomRepository) ListForMember(_ context.Context, userID string) ([]model.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ChatRoom
	for _, room := range r.rooms {
		if room.IsMember(userID) {
			out = append(out, *cloneRoom(room))
		}
	}
	return out, nil
}

func (r *ChatRoomRepository) AddMember(_ context.Context, chatID string, member model.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	if !room.IsMember(member.ID) {
		room.Members = append(room.Members, member.ID)
	}
	if member.IsAdmin && !room.IsAdmin(member.ID) {
		room.Administrators = append(room.Administrators, member.ID)
	}
	if member.Name != "" {
		room.MemberNames[member.ID] = member.Name
	}
	r.index(member.ID, chatID)
	return nil
}

func (r *ChatRoomRepository) RemoveMember(_ context.Context, chatID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok || !room.IsMember(memberID) {
		return repository.ErrNotFound
	}
	room.Members = slices.DeleteFunc(room.Members, func(id string) bool { return id == memberID })
	room.Administrators = slices.DeleteFunc(room.Administrators, func(id string) bool { return id == memberID })
	delete(room.MemberNames, memberID)
	r.userRooms[memberID] = slices.DeleteFunc(r.userRooms[memberID], func(id string) bool { return id == chatID })
	return nil
}

func (r *ChatRoomRepository) SetAdmin(_ context.Context, chatID, memberID string, admin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok || !room.IsMember(memberID) {
		return repository.ErrNotFound
	}
	switch {
	case admin && !room.IsAdmin(memberID):
		room.Administrators = append(room.Administrators, memberID)
	case !admin:
		room.Administrators = slices.DeleteFunc(room.Administrators, func(id string) bool { return id == memberID })
	}
	return nil
}

func (r *ChatRoomRepository) UpdateName(_ context.Context, chatID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	room.Name = name
	return nil
}

func (r *ChatRoomRepository) UpdateLastMessage(_ context.Context, chatID, text string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		return repository.ErrNotFound
	}
	room.LastMessage = text
	room.LastMessageTimestamp = ts
	return nil
}

func (r *ChatRoomRepository) index(userID, chatID string) {
	if !slices.Contains(r.userRooms[userID], chatID) {
		r.userRooms[userID] = append(r.userRooms[userID], chatID)
	}
}

func cloneRoom(room *model.ChatRoom) *model.ChatRoom {
	c := *room
	c.Members = slices.Clone(room.Members)
	c.Administrators = slices.Clone(room.Administrators)
	c.MemberNames = maps.Clone(room.MemberNames)
	return &c
}
