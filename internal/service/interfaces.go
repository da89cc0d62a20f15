package service

import (
	"context"
	"io"
	"time"

	"tush00nka/captionchat/internal/model"
)

// Subscription живая подписка; Unsubscribe не ждет завершения доставки.
type Subscription interface {
	Unsubscribe()
	Done() <-chan struct{}
}

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*model.Session, error)
	LogIn(ctx context.Context, email, password string) (*model.Session, error)
	LogOut(ctx context.Context, token string)
	UpdateDisplayName(ctx context.Context, token, name string) (*model.SessionUser, error)
	LoggedInUser(ctx context.Context, token string) (*model.SessionUser, error)
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

type ChatService interface {
	CreateChatRoom(ctx context.Context, founderID string) (string, error)
	GetChatsForUser(ctx context.Context, userID string) ([]model.ChatRoom, error)
	SubscribeUserChats(ctx context.Context, userID string, fn func([]model.ChatRoom)) (Subscription, error)
	AddChatMember(ctx context.Context, chatID, identifier string) (*model.Member, error)
	JoinChatRoom(ctx context.Context, chatID, userID string) (*model.Member, error)
	PromoteChatMember(ctx context.Context, chatID, memberID string) error
	DemoteChatMember(ctx context.Context, chatID, memberID string) error
	RemoveChatMember(ctx context.Context, chatID, memberID string) error
	GetChatRoomData(ctx context.Context, chatID string) (*model.ChatRoom, error)
	UpdateChatName(ctx context.Context, chatID, name string) error
	RequireMember(ctx context.Context, chatID, userID string) (*model.ChatRoom, error)
	RequireAdmin(ctx context.Context, chatID, userID string) (*model.ChatRoom, error)
}

type MessageService interface {
	SubscribeChatMessages(ctx context.Context, chatID string, window int, fn func([]model.Message)) (Subscription, error)
	GetMessages(ctx context.Context, chatID string, before time.Time, limit int) ([]model.Message, error)
	SendTextMessage(ctx context.Context, chatID, userID, displayName, content string) (*model.Message, error)
	SendFile(ctx context.Context, chatID, userID, displayName, fileID string, upload model.Upload, isImage bool) (*model.Message, error)
	StoreImageCaption(ctx context.Context, chatID, fileID, caption string) error
}

type CatalogService interface {
	GetCatalogsData(ctx context.Context, userID string) ([]model.CatalogEntry, error)
	ListAllImages(ctx context.Context, chatID string) ([]model.GalleryImage, error)
	DownloadSelected(ctx context.Context, chatID string, keys []string, sink func(name string, r io.Reader) error) (int, error)
}

type ScratchService interface {
	Subscribe(ctx context.Context, fn func([]model.ScratchMessage)) (Subscription, error)
	List(ctx context.Context) ([]model.ScratchMessage, error)
	SendTextMessage(ctx context.Context, userID, content string) (*model.ScratchMessage, error)
	Clear(ctx context.Context) error
}

type Captioner interface {
	Caption(ctx context.Context, image io.Reader) string
	CaptionURL(ctx context.Context, imageURL string) string
}
