package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/repository"

	"github.com/google/uuid"
)

type chatService struct {
	rooms  repository.ChatRoomRepository
	users  repository.UserRepository
	broker realtime.Broker
}

func NewChatService(
	rooms repository.ChatRoomRepository,
	users repository.UserRepository,
	broker realtime.Broker,
) ChatService {
	return &chatService{rooms: rooms, users: users, broker: broker}
}

// CreateChatRoom создает комнату, где основатель единственный участник и администратор.
func (s *chatService) CreateChatRoom(ctx context.Context, founderID string) (string, error) {
	if founderID == "" {
		return "", ErrInvalidID
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	room := &model.ChatRoom{
		ID:                   uuid.NewString(),
		Name:                 model.DefaultChatName,
		LastMessage:          "",
		LastMessageTimestamp: now,
		Members:              []string{founderID},
		Administrators:       []string{founderID},
		MemberNames:          map[string]string{},
		CreatedAt:            now,
	}

	if founder, err := s.users.FindByID(ctx, founderID); err == nil {
		room.MemberNames[founderID] = founder.DisplayName
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Printf("create chat room: failed to load founder %s: %v", founderID, err)
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return "", fmt.Errorf("failed to create chat room: %w", err)
	}

	publish(ctx, s.broker, realtime.UserChatsTopic(founderID))
	return room.ID, nil
}

// GetChatsForUser читает индекс комнат пользователя и догружает их пачками по MaxInClause.
func (s *chatService) GetChatsForUser(ctx context.Context, userID string) ([]model.ChatRoom, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	ids, err := s.rooms.RoomIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat ids: %w", err)
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	rooms := make([]model.ChatRoom, 0, len(unique))
	loaded := make(map[string]bool, len(unique))
	for start := 0; start < len(unique); start += repository.MaxInClause {
		end := min(start+repository.MaxInClause, len(unique))
		chunk, err := s.rooms.GetByIDs(ctx, unique[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to get chat rooms: %w", err)
		}
		for _, room := range chunk {
			if !loaded[room.ID] {
				loaded[room.ID] = true
				rooms = append(rooms, room)
			}
		}
	}

	sortByLastMessage(rooms)
	return rooms, nil
}

func (s *chatService) SubscribeUserChats(ctx context.Context, userID string, fn func([]model.ChatRoom)) (Subscription, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	load := func(ctx context.Context) ([]model.ChatRoom, error) {
		rooms, err := s.rooms.ListForMember(ctx, userID)
		if err != nil {
			return nil, err
		}
		if rooms == nil {
			rooms = []model.ChatRoom{}
		}
		sortByLastMessage(rooms)
		return rooms, nil
	}

	return subscribe(ctx, s.broker, realtime.UserChatsTopic(userID), "user_chats", load, fn)
}

// AddChatMember: идентификатор с "@" ищется как email, иначе как id пользователя.
func (s *chatService) AddChatMember(ctx context.Context, chatID, identifier string) (*model.Member, error) {
	identifier = strings.TrimSpace(identifier)
	if chatID == "" || identifier == "" {
		return nil, ErrInvalidID
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindByID(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.addMember(ctx, chatID, user)
}

func (s *chatService) JoinChatRoom(ctx context.Context, chatID, userID string) (*model.Member, error) {
	if chatID == "" || userID == "" {
		return nil, ErrInvalidID
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.addMember(ctx, chatID, user)
}

func (s *chatService) addMember(ctx context.Context, chatID string, user *model.User) (*model.Member, error) {
	member := model.Member{ID: user.ID, Name: user.DisplayName}
	if err := s.rooms.AddMember(ctx, chatID, member); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.notifyMembers(ctx, chatID)
	return &member, nil
}

func (s *chatService) PromoteChatMember(ctx context.Context, chatID, memberID string) error {
	return s.setAdmin(ctx, chatID, memberID, true)
}

func (s *chatService) DemoteChatMember(ctx context.Context, chatID, memberID string) error {
	return s.setAdmin(ctx, chatID, memberID, false)
}

func (s *chatService) setAdmin(ctx context.Context, chatID, memberID string, admin bool) error {
	room, err := s.GetChatRoomData(ctx, chatID)
	if err != nil {
		return err
	}
	if !room.IsMember(memberID) {
		return ErrNotMember
	}

	if err := s.rooms.SetAdmin(ctx, chatID, memberID, admin); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("failed to update administrators: %w", err)
	}

	s.notifyMembers(ctx, chatID)
	return nil
}

// RemoveChatMember убирает участника из members, administrators и memberNames.
func (s *chatService) RemoveChatMember(ctx context.Context, chatID, memberID string) error {
	room, err := s.GetChatRoomData(ctx, chatID)
	if err != nil {
		return err
	}
	if !room.IsMember(memberID) {
		return ErrNotMember
	}

	if err := s.rooms.RemoveMember(ctx, chatID, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.notifyMembers(ctx, chatID, memberID)
	// открытые окна сообщений перепроверяют членство
	publish(ctx, s.broker, realtime.ChatMessagesTopic(chatID))
	return nil
}

func (s *chatService) GetChatRoomData(ctx context.Context, chatID string) (*model.ChatRoom, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}

	room, err := s.rooms.GetByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}
	return room, nil
}

func (s *chatService) UpdateChatName(ctx context.Context, chatID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	if err := s.rooms.UpdateName(ctx, chatID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChatNotFound
		}
		return fmt.Errorf("failed to rename chat room: %w", err)
	}

	s.notifyMembers(ctx, chatID)
	return nil
}

func (s *chatService) RequireMember(ctx context.Context, chatID, userID string) (*model.ChatRoom, error) {
	room, err := s.GetChatRoomData(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, ErrForbidden
	}
	return room, nil
}

func (s *chatService) RequireAdmin(ctx context.Context, chatID, userID string) (*model.ChatRoom, error) {
	room, err := s.RequireMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(userID) {
		return nil, ErrForbidden
	}
	return room, nil
}

// notifyMembers публикует изменение списка комнат каждому участнику и extra.
func (s *chatService) notifyMembers(ctx context.Context, chatID string, extra ...string) {
	notifyRoomMembers(ctx, s.rooms, s.broker, chatID, extra...)
}

func notifyRoomMembers(ctx context.Context, rooms repository.ChatRoomRepository, broker realtime.Broker, chatID string, extra ...string) {
	var topics []string
	room, err := rooms.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("failed to load chat room %s for notification: %v", chatID, err)
	} else {
		for _, id := range room.Members {
			topics = append(topics, realtime.UserChatsTopic(id))
		}
	}
	for _, id := range extra {
		topics = append(topics, realtime.UserChatsTopic(id))
	}
	publish(ctx, broker, topics...)
}

// sortByLastMessage новые сверху, при равенстве по id.
func sortByLastMessage(rooms []model.ChatRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if !rooms[i].LastMessageTimestamp.Equal(rooms[j].LastMessageTimestamp) {
			return rooms[i].LastMessageTimestamp.After(rooms[j].LastMessageTimestamp)
		}
		return rooms[i].ID < rooms[j].ID
	})
}
