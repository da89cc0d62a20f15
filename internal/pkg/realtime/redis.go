package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroker уведомления через redis pub/sub, общие для всех инстансов.
type RedisBroker struct {
	rdb *redis.Client
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string) error {
	if err := b.rdb.Publish(ctx, topic, "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, topic)
	// ждем подтверждения подписки, чтобы не потерять первую публикацию
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe %s: %w", topic, err)
	}

	out := make(chan struct{}, 1)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			if err := pubsub.Close(); err != nil {
				log.Printf("realtime: failed to close subscription %s: %v", topic, err)
			}
		})
	}

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-stop:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				notify(out)
			}
		}
	}()

	return out, cancel, nil
}
