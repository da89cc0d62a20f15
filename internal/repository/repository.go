package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tush00nka/captionchat/internal/model"
)

// MaxInClause максимальное число id в одном запросе по списку.
const MaxInClause = 30

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already taken")
	ErrTooManyIDs = fmt.Errorf("at most %d ids per lookup", MaxInClause)
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, name string) error
}

type ChatRoomRepository interface {
	// Create сохраняет комнату вместе с основателем в members, administrators и memberNames.
	Create(ctx context.Context, room *model.ChatRoom) error
	GetByID(ctx context.Context, id string) (*model.ChatRoom, error)
	// GetByIDs возвращает найденные комнаты; больше MaxInClause id дают ErrTooManyIDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.ChatRoom, error)
	RoomIDsForUser(ctx context.Context, userID string) ([]string, error)
	ListForMember(ctx context.Context, userID string) ([]model.ChatRoom, error)
	// AddMember добавляет участника и его имя одной записью.
	AddMember(ctx context.Context, chatID string, member model.Member) error
	RemoveMember(ctx context.Context, chatID, memberID string) error
	SetAdmin(ctx context.Context, chatID, memberID string, admin bool) error
	UpdateName(ctx context.Context, chatID, name string) error
	UpdateLastMessage(ctx context.Context, chatID, text string, ts time.Time) error
}

type MessageRepository interface {
	Append(ctx context.Context, msg *model.Message) error
	// Latest последние n сообщений по возрастанию времени.
	Latest(ctx context.Context, chatID string, n int) ([]model.Message, error)
	Before(ctx context.Context, chatID string, before time.Time, n int) ([]model.Message, error)
	LatestOfType(ctx context.Context, chatID string, t model.MessageType) (*model.Message, error)
}

type CaptionRepository interface {
	Upsert(ctx context.Context, caption *model.Caption) error
	// ListForChat fileId -> caption
	ListForChat(ctx context.Context, chatID string) (map[string]string, error)
}

type SessionRepository interface {
	Save(ctx context.Context, session *model.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

type ScratchRepository interface {
	Add(ctx context.Context, msg model.ScratchMessage) error
	List(ctx context.Context) ([]model.ScratchMessage, error)
	Clear(ctx context.Context) error
}
