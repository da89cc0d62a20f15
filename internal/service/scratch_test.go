package service

import (
	"context"
	"errors"
	"testing"

	"tush00nka/captionchat/internal/model"
)

func TestScratchFeed(t *testing.T) {
	e := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := NewScratchService(e.scratch, e.broker)

	got := make(chan []model.ScratchMessage, 16)
	sub, err := feed.Subscribe(ctx, func(msgs []model.ScratchMessage) { got <- msgs })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Unsubscribe()

	if initial := recv(t, got); len(initial) != 0 {
		t.Fatalf("initial = %v, want empty", initial)
	}

	first, err := feed.SendTextMessage(ctx, "u1", "one")
	if err != nil {
		t.Fatal(err)
	}
	second, err := feed.SendTextMessage(ctx, "u2", "two")
	if err != nil {
		t.Fatal(err)
	}
	if second.Timestamp <= first.Timestamp {
		t.Errorf("timestamps %d, %d not increasing", first.Timestamp, second.Timestamp)
	}

	for {
		msgs := recv(t, got)
		if len(msgs) == 2 {
			if msgs[0].Content != "one" || msgs[1].Content != "two" {
				t.Errorf("feed = %v, want one, two", msgs)
			}
			break
		}
	}

	if err := feed.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	msgs, _ := feed.List(ctx)
	if len(msgs) != 0 {
		t.Errorf("List() after Clear = %v, want empty", msgs)
	}

	if _, err := feed.SendTextMessage(ctx, "u1", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message error = %v, want ErrEmptyMessage", err)
	}
}
