package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tush00nka/captionchat/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: db}
}

func (r *chatRoomRepository) Create(ctx context.Context, room *model.ChatRoom) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return fmt.Errorf("failed to create chat room: %w", err)
		}

		members := make([]model.ChatMember, 0, len(room.Members))
		for _, id := range room.Members {
			members = append(members, model.ChatMember{
				ChatID:  room.ID,
				UserID:  id,
				IsAdmin: room.IsAdmin(id),
				Name:    room.MemberNames[id],
			})
		}
		if len(members) == 0 {
			return nil
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to create chat members: %w", err)
		}
		return nil
	})
}

func (r *chatRoomRepository) GetByID(ctx context.Context, id string) (*model.ChatRoom, error) {
	var room model.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	rooms := []model.ChatRoom{room}
	if err := r.loadMembers(ctx, rooms); err != nil {
		return nil, err
	}
	return &rooms[0], nil
}

func (r *chatRoomRepository) GetByIDs(ctx context.Context, ids []string) ([]model.ChatRoom, error) {
	if len(ids) > MaxInClause {
		return nil, ErrTooManyIDs
	}
	if len(ids) == 0 {
		return []model.ChatRoom{}, nil
	}

	var rooms []model.ChatRoom
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to get chat rooms: %w", err)
	}
	if err := r.loadMembers(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *chatRoomRepository) RoomIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ChatMember{}).
		Where("user_id = ?", userID).
		Pluck("chat_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user chat ids: %w", err)
	}
	return ids, nil
}

func (r *chatRoomRepository) ListForMember(ctx context.Context, userID string) ([]model.ChatRoom, error) {
	var rooms []model.ChatRoom
	sub := r.db.Model(&model.ChatMember{}).Select("chat_id").Where("user_id = ?", userID)
	if err := r.db.WithContext(ctx).Where("id IN (?)", sub).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	if err := r.loadMembers(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *chatRoomRepository) AddMember(ctx context.Context, chatID string, member model.Member) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensureRoom(tx, chatID); err != nil {
			return err
		}

		row := model.ChatMember{ChatID: chatID, UserID: member.ID, IsAdmin: member.IsAdmin, Name: member.Name}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
}

func (r *chatRoomRepository) RemoveMember(ctx context.Context, chatID, memberID string) error {
	res := r.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, memberID).
		Delete(&model.ChatMember{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *chatRoomRepository) SetAdmin(ctx context.Context, chatID, memberID string, admin bool) error {
	res := r.db.WithContext(ctx).Model(&model.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, memberID).
		Update("is_admin", admin)
	if res.Error != nil {
		return fmt.Errorf("failed to update administrator: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *chatRoomRepository) UpdateName(ctx context.Context, chatID, name string) error {
	return r.updateRoom(ctx, chatID, map[string]any{"name": name})
}

func (r *chatRoomRepository) UpdateLastMessage(ctx context.Context, chatID, text string, ts time.Time) error {
	return r.updateRoom(ctx, chatID, map[string]any{
		"last_message":           text,
		"last_message_timestamp": ts,
	})
}

func (r *chatRoomRepository) updateRoom(ctx context.Context, chatID string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.ChatRoom{}).Where("id = ?", chatID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update chat room: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *chatRoomRepository) ensureRoom(tx *gorm.DB, chatID string) error {
	var count int64
	if err := tx.Model(&model.ChatRoom{}).Where("id = ?", chatID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check chat room: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// loadMembers заполняет members, administrators и memberNames одним запросом.
func (r *chatRoomRepository) loadMembers(ctx context.Context, rooms []model.ChatRoom) error {
	if len(rooms) == 0 {
		return nil
	}

	index := make(map[string]*model.ChatRoom, len(rooms))
	ids := make([]string, 0, len(rooms))
	for i := range rooms {
		rooms[i].Members = []string{}
		rooms[i].Administrators = []string{}
		rooms[i].MemberNames = map[string]string{}
		index[rooms[i].ID] = &rooms[i]
		ids = append(ids, rooms[i].ID)
	}

	var members []model.ChatMember
	err := r.db.WithContext(ctx).Where("chat_id IN ?", ids).Order("created_at").Find(&members).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load chat members: %w", err)
	}

	for _, m := range members {
		room := index[m.ChatID]
		if room == nil {
			continue
		}
		room.Members = append(room.Members, m.UserID)
		if m.IsAdmin {
			room.Administrators = append(room.Administrators, m.UserID)
		}
		if m.Name != "" {
			room.MemberNames[m.UserID] = m.Name
		}
	}
	return nil
}
