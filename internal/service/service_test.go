package service

import (
	"context"
	"testing"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/auth"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/pkg/storage"
	"tush00nka/captionchat/internal/repository/memory"
)

type testEnv struct {
	users    *memory.UserRepository
	rooms    *memory.ChatRoomRepository
	messages *memory.MessageRepository
	captions *memory.CaptionRepository
	sessions *memory.SessionRepository
	scratch  *memory.ScratchRepository
	files    *storage.MemoryStore
	broker   *realtime.MemoryBroker

	auth    AuthService
	chats   ChatService
	msgs    MessageService
	catalog CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		users:    memory.NewUserRepository(),
		rooms:    memory.NewChatRoomRepository(),
		messages: memory.NewMessageRepository(),
		captions: memory.NewCaptionRepository(),
		sessions: memory.NewSessionRepository(),
		scratch:  memory.NewScratchRepository(),
		files:    storage.NewMemoryStore("http://files.test"),
		broker:   realtime.NewMemoryBroker(),
	}
	e.auth = NewAuthService(e.users, e.sessions, auth.NewTokenManager("test-key", time.Hour))
	e.chats = NewChatService(e.rooms, e.users, e.broker)
	e.msgs = NewMessageService(e.rooms, e.messages, e.captions, e.files, e.broker)
	e.catalog = NewCatalogService(e.chats, e.messages, e.captions, e.files)
	return e
}

func (e *testEnv) addUser(t *testing.T, id, email, name string) {
	t.Helper()
	u := &model.User{ID: id, Email: email, DisplayName: name, PasswordHash: "x"}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func (e *testEnv) newRoom(t *testing.T, founderID string) string {
	t.Helper()
	id, err := e.chats.CreateChatRoom(context.Background(), founderID)
	if err != nil {
		t.Fatalf("CreateChatRoom() error = %v", err)
	}
	return id
}

func (e *testEnv) room(t *testing.T, id string) *model.ChatRoom {
	t.Helper()
	room, err := e.chats.GetChatRoomData(context.Background(), id)
	if err != nil {
		t.Fatalf("GetChatRoomData(%s) error = %v", id, err)
	}
	return room
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription delivery")
	}
	var zero T
	return zero
}

func TestStamperStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStamper(time.Millisecond)
	s.now = func() time.Time { return fixed }

	prev := s.Next()
	if !prev.Equal(fixed) {
		t.Fatalf("first stamp = %v, want %v", prev, fixed)
	}
	for i := 0; i < 10; i++ {
		next := s.Next()
		if !next.After(prev) {
			t.Fatalf("stamp %d = %v, not after %v", i, next, prev)
		}
		prev = next
	}
	if want := fixed.Add(10 * time.Millisecond); !prev.Equal(want) {
		t.Errorf("last stamp = %v, want %v", prev, want)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", "ann@example.com", "Ann")

	got := make(chan []model.ChatRoom, 8)
	sub, err := e.chats.SubscribeUserChats(context.Background(), "u1", func(rooms []model.ChatRoom) { got <- rooms })
	if err != nil {
		t.Fatalf("SubscribeUserChats() error = %v", err)
	}
	recv(t, got)

	sub.Unsubscribe()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
	if n := e.broker.Subscribers(realtime.UserChatsTopic("u1")); n != 0 {
		t.Errorf("Subscribers() = %d after unsubscribe, want 0", n)
	}
}
