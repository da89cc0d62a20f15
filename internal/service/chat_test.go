package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"tush00nka/captionchat/internal/model"
)

func TestCreateChatRoomFounderIsSoleAdmin(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", "ann@example.com", "Ann")

	room := e.room(t, e.newRoom(t, "u1"))

	if room.Name != model.DefaultChatName {
		t.Errorf("Name = %q, want %q", room.Name, model.DefaultChatName)
	}
	if room.LastMessage != "" {
		t.Errorf("LastMessage = %q, want empty", room.LastMessage)
	}
	if !slices.Equal(room.Members, []string{"u1"}) || !slices.Equal(room.Administrators, []string{"u1"}) {
		t.Errorf("members = %v, administrators = %v, want [u1] for both", room.Members, room.Administrators)
	}
	if room.MemberNames["u1"] != "Ann" {
		t.Errorf("MemberNames[u1] = %q, want Ann", room.MemberNames["u1"])
	}
}

func TestGetChatsForUserBatchesLookups(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 65; i++ {
		room := &model.ChatRoom{
			ID:                   fmt.Sprintf("room-%02d", i),
			Name:                 "room",
			LastMessageTimestamp: base.Add(time.Duration(i*7%65) * time.Minute),
			Members:              []string{"u1"},
			Administrators:       []string{"u1"},
		}
		if err := e.rooms.Create(ctx, room); err != nil {
			t.Fatal(err)
		}
	}

	rooms, err := e.chats.GetChatsForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetChatsForUser() error = %v", err)
	}

	if got := e.rooms.Lookups(); got != 3 {
		t.Errorf("lookups = %d, want 3", got)
	}
	if len(rooms) != 65 {
		t.Fatalf("len(rooms) = %d, want 65", len(rooms))
	}

	seen := map[string]bool{}
	for i, room := range rooms {
		if seen[room.ID] {
			t.Errorf("duplicate room %s", room.ID)
		}
		seen[room.ID] = true
		if i > 0 && room.LastMessageTimestamp.After(rooms[i-1].LastMessageTimestamp) {
			t.Errorf("rooms[%d] is newer than rooms[%d]", i, i-1)
		}
	}
}

func TestGetChatsForUserSkipsMissingRooms(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", "ann@example.com", "Ann")
	id := e.newRoom(t, "u1")
	e.rooms.IndexRoom("u1", "deleted-room")

	rooms, err := e.chats.GetChatsForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetChatsForUser() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != id {
		t.Errorf("rooms = %v, want only %s", rooms, id)
	}
}

func TestAdministratorsStaySubsetOfMembers(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	e.addUser(t, "u2", "bob@example.com", "Bob")
	e.addUser(t, "u3", "eve@example.com", "Eve")
	id := e.newRoom(t, "u1")

	steps := []struct {
		name string
		op   func() error
	}{
		{"add bob", func() error { _, err := e.chats.AddChatMember(ctx, id, "bob@example.com"); return err }},
		{"join eve", func() error { _, err := e.chats.JoinChatRoom(ctx, id, "u3"); return err }},
		{"promote bob", func() error { return e.chats.PromoteChatMember(ctx, id, "u2") }},
		{"promote eve", func() error { return e.chats.PromoteChatMember(ctx, id, "u3") }},
		{"demote bob", func() error { return e.chats.DemoteChatMember(ctx, id, "u2") }},
		{"remove eve", func() error { return e.chats.RemoveChatMember(ctx, id, "u3") }},
		{"remove founder", func() error { return e.chats.RemoveChatMember(ctx, id, "u1") }},
	}

	for _, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		room := e.room(t, id)
		for _, admin := range room.Administrators {
			if !room.IsMember(admin) {
				t.Fatalf("%s: administrator %s is not a member (members %v)", step.name, admin, room.Members)
			}
		}
	}

	room := e.room(t, id)
	if !slices.Equal(room.Members, []string{"u2"}) {
		t.Errorf("members = %v, want [u2]", room.Members)
	}
	if len(room.Administrators) != 0 {
		t.Errorf("administrators = %v, want none", room.Administrators)
	}
	if _, ok := room.MemberNames["u3"]; ok {
		t.Error("removed member still has a name entry")
	}
}

func TestAddChatMember(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	e.addUser(t, "u2", "bob@example.com", "Bob")
	id := e.newRoom(t, "u1")

	member, err := e.chats.AddChatMember(ctx, id, "u2")
	if err != nil {
		t.Fatalf("AddChatMember(by id) error = %v", err)
	}
	if member.Name != "Bob" || member.IsAdmin {
		t.Errorf("member = %+v, want Bob without admin", member)
	}
	if got := e.room(t, id).MemberNames["u2"]; got != "Bob" {
		t.Errorf("MemberNames[u2] = %q, want Bob", got)
	}

	if _, err := e.chats.AddChatMember(ctx, id, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("AddChatMember(unknown email) error = %v, want ErrUserNotFound", err)
	}
	if _, err := e.chats.AddChatMember(ctx, "missing", "u2"); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("AddChatMember(missing chat) error = %v, want ErrChatNotFound", err)
	}

	rooms, _ := e.chats.GetChatsForUser(ctx, "u2")
	if len(rooms) != 1 || rooms[0].ID != id {
		t.Errorf("GetChatsForUser(u2) = %v, want the joined room", rooms)
	}
}

func TestMembershipErrors(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	id := e.newRoom(t, "u1")

	if err := e.chats.PromoteChatMember(ctx, id, "stranger"); !errors.Is(err, ErrNotMember) {
		t.Errorf("Promote(stranger) error = %v, want ErrNotMember", err)
	}
	if err := e.chats.RemoveChatMember(ctx, "missing", "u1"); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("Remove(missing chat) error = %v, want ErrChatNotFound", err)
	}
	if err := e.chats.UpdateChatName(ctx, id, "   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("UpdateChatName(blank) error = %v, want ErrInvalidName", err)
	}
	if err := e.chats.UpdateChatName(ctx, id, " Team "); err != nil {
		t.Fatalf("UpdateChatName() error = %v", err)
	}
	if got := e.room(t, id).Name; got != "Team" {
		t.Errorf("Name = %q, want Team", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	e.addUser(t, "u2", "bob@example.com", "Bob")
	id := e.newRoom(t, "u1")
	if _, err := e.chats.JoinChatRoom(ctx, id, "u2"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.chats.RequireAdmin(ctx, id, "u1"); err != nil {
		t.Errorf("RequireAdmin(founder) error = %v", err)
	}
	if _, err := e.chats.RequireAdmin(ctx, id, "u2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("RequireAdmin(member) error = %v, want ErrForbidden", err)
	}
	if _, err := e.chats.RequireMember(ctx, id, "u2"); err != nil {
		t.Errorf("RequireMember(member) error = %v", err)
	}
	if _, err := e.chats.RequireMember(ctx, id, "u3"); !errors.Is(err, ErrForbidden) {
		t.Errorf("RequireMember(stranger) error = %v, want ErrForbidden", err)
	}
}

func TestSubscribeUserChatsSortedOnEveryDelivery(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.addUser(t, "u1", "ann@example.com", "Ann")

	older := e.newRoom(t, "u1")
	newer := e.newRoom(t, "u1")
	if _, err := e.msgs.SendTextMessage(ctx, newer, "u1", "Ann", "first"); err != nil {
		t.Fatal(err)
	}

	got := make(chan []model.ChatRoom, 16)
	sub, err := e.chats.SubscribeUserChats(ctx, "u1", func(rooms []model.ChatRoom) { got <- rooms })
	if err != nil {
		t.Fatalf("SubscribeUserChats() error = %v", err)
	}
	defer sub.Unsubscribe()

	assertSorted := func(rooms []model.ChatRoom) {
		t.Helper()
		for i := 1; i < len(rooms); i++ {
			if rooms[i].LastMessageTimestamp.After(rooms[i-1].LastMessageTimestamp) {
				t.Fatalf("snapshot not sorted descending: %v", rooms)
			}
		}
	}

	first := recv(t, got)
	assertSorted(first)
	if len(first) != 2 || first[0].ID != newer {
		t.Fatalf("initial snapshot = %v, want %s first", first, newer)
	}

	if _, err := e.msgs.SendTextMessage(ctx, older, "u1", "Ann", "bump"); err != nil {
		t.Fatal(err)
	}
	for {
		rooms := recv(t, got)
		assertSorted(rooms)
		if rooms[0].ID == older {
			if rooms[0].LastMessage != "Ann: bump" {
				t.Errorf("LastMessage = %q, want %q", rooms[0].LastMessage, "Ann: bump")
			}
			break
		}
	}
}
