// Package realtime рассылает уведомления об изменениях по темам.
// Уведомление не несет данных: подписчик перечитывает снимок сам.
package realtime

import (
	"context"
	"fmt"
	"sync"
)

type Broker interface {
	Publish(ctx context.Context, topic string) error
	// Subscribe возвращает канал уведомлений (буфер 1, повторы схлопываются) и функцию отмены.
	Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error)
}

const ScratchTopic = "scratch:messages"

func UserChatsTopic(userID string) string {
	return fmt.Sprintf("user:%s:chats", userID)
}

func ChatMessagesTopic(chatID string) string {
	return fmt.Sprintf("chat:%s:messages", chatID)
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[topic] {
		notify(ch)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan struct{}]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	stop := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stop)
			b.mu.Lock()
			delete(b.subs[topic], ch)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
			close(ch)
			b.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	return ch, cancel, nil
}

// Subscribers число подписчиков темы.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
