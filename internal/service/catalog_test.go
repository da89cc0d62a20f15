package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/caption"
)

func (e *testEnv) sendFile(t *testing.T, chatID, fileID, name string, isImage bool) {
	t.Helper()
	upload := model.Upload{Filename: name, Body: strings.NewReader("data-" + name)}
	if _, err := e.msgs.SendFile(context.Background(), chatID, "u1", "Ann", fileID, upload, isImage); err != nil {
		t.Fatalf("SendFile(%s) error = %v", name, err)
	}
}

func TestGetCatalogsDataExcludesRoomsWithoutImages(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")

	withImage := e.newRoom(t, "u1")
	if err := e.chats.UpdateChatName(ctx, withImage, "Pets"); err != nil {
		t.Fatal(err)
	}
	e.sendFile(t, withImage, "old", "old.png", true)
	e.sendFile(t, withImage, "new", "new.jpg", true)

	textOnly := e.newRoom(t, "u1")
	if _, err := e.msgs.SendTextMessage(ctx, textOnly, "u1", "Ann", "hi"); err != nil {
		t.Fatal(err)
	}
	filesOnly := e.newRoom(t, "u1")
	e.sendFile(t, filesOnly, "doc", "report.pdf", false)

	entries, err := e.catalog.GetCatalogsData(ctx, "u1")
	if err != nil {
		t.Fatalf("GetCatalogsData() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want only the room with images", entries)
	}

	got := entries[0]
	if got.ChatID != withImage || got.ChatName != "Pets" || got.FileID != "new" {
		t.Errorf("entry = %+v, want latest image of Pets", got)
	}
	if !strings.HasSuffix(got.ThumbnailURL, "/new/new.jpg") {
		t.Errorf("ThumbnailURL = %q, want the latest image", got.ThumbnailURL)
	}
}

func TestListAllImagesJoinsCaptions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	id := e.newRoom(t, "u1")

	e.sendFile(t, id, "a", "dog.PNG", true)
	e.sendFile(t, id, "b", "cat.jpg", true)
	e.sendFile(t, id, "c", "notes.txt", false)
	e.sendFile(t, id, "d", "photo.jpeg", true)
	if err := e.msgs.StoreImageCaption(ctx, id, "a", "a dog"); err != nil {
		t.Fatal(err)
	}

	images, err := e.catalog.ListAllImages(ctx, id)
	if err != nil {
		t.Fatalf("ListAllImages() error = %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("images = %v, want dog.PNG and cat.jpg", images)
	}

	byID := map[string]model.GalleryImage{}
	for _, img := range images {
		byID[img.FileID] = img
	}
	if byID["a"].Caption != "a dog" {
		t.Errorf("caption for a = %q, want exact stored caption", byID["a"].Caption)
	}
	if byID["b"].Caption != caption.Fallback {
		t.Errorf("caption for b = %q, want fallback", byID["b"].Caption)
	}
	if byID["a"].Title != "dog.PNG" || byID["a"].URL == "" {
		t.Errorf("image a = %+v, want title and url", byID["a"])
	}
}

func TestListAllImagesEmptyRoom(t *testing.T) {
	e := newTestEnv(t)

	images, err := e.catalog.ListAllImages(context.Background(), "empty")
	if err != nil {
		t.Fatalf("ListAllImages() error = %v", err)
	}
	if len(images) != 0 {
		t.Errorf("images = %v, want none", images)
	}
}

func TestDownloadSelectedSkipsFailures(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.addUser(t, "u1", "ann@example.com", "Ann")
	id := e.newRoom(t, "u1")
	other := e.newRoom(t, "u1")

	e.sendFile(t, id, "a", "dog.png", true)
	e.sendFile(t, id, "b", "cat.jpg", true)
	e.sendFile(t, other, "x", "secret.png", true)

	keys := []string{
		id + "/a/dog.png",
		id + "/missing/none.png",
		other + "/x/secret.png",
		id + "/../" + other + "/x/secret.png",
		id + "/b/cat.jpg",
	}

	got := map[string]string{}
	n, err := e.catalog.DownloadSelected(ctx, id, keys, func(name string, r io.Reader) error {
		data, err := io.ReadAll(r)
		got[name] = string(data)
		return err
	})
	if err != nil {
		t.Fatalf("DownloadSelected() error = %v", err)
	}
	if n != 2 {
		t.Errorf("sent = %d, want 2", n)
	}

	names := make([]string, 0, len(got))
	for name := range got {
		names = append(names, name)
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"a/dog.png", "b/cat.jpg"}) {
		t.Errorf("names = %v", names)
	}
	if got["a/dog.png"] != "data-dog.png" {
		t.Errorf("content = %q", got["a/dog.png"])
	}
}

func TestDownloadSelectedStopsOnSinkError(t *testing.T) {
	e := newTestEnv(t)
	e.addUser(t, "u1", "ann@example.com", "Ann")
	id := e.newRoom(t, "u1")
	e.sendFile(t, id, "a", "dog.png", true)
	e.sendFile(t, id, "b", "cat.jpg", true)

	sinkErr := errors.New("disk full")
	n, err := e.catalog.DownloadSelected(context.Background(), id,
		[]string{id + "/a/dog.png", id + "/b/cat.jpg"},
		func(string, io.Reader) error { return sinkErr })
	if !errors.Is(err, sinkErr) {
		t.Fatalf("DownloadSelected() error = %v, want sink error", err)
	}
	if n != 0 {
		t.Errorf("sent = %d, want 0", n)
	}
}
