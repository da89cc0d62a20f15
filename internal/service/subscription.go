package service

import (
	"context"
	"log"
	"sync"
	"time"

	"tush00nka/captionchat/internal/pkg/metrics"
	"tush00nka/captionchat/internal/pkg/realtime"
)

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Unsubscribe() {
	s.cancel()
}

func (s *subscription) Done() <-chan struct{} {
	return s.done
}

// subscribe подписывается на тему до первой загрузки, чтобы не пропустить изменения между ними.
// load и deliver вызываются из одной горутины.
func subscribe[T any](
	ctx context.Context,
	broker realtime.Broker,
	topic, kind string,
	load func(context.Context) (T, error),
	deliver func(T),
) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	notes, stop, err := broker.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &subscription{cancel: cancel, done: make(chan struct{})}
	gauge := metrics.ActiveSubscriptions.WithLabelValues(kind)
	gauge.Inc()

	go func() {
		defer close(s.done)
		defer gauge.Dec()
		defer stop()

		push := func() {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("subscription %s: failed to load snapshot: %v", topic, err)
				return
			}
			deliver(v)
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notes:
				if !ok {
					return
				}
				push()
			}
		}
	}()

	return s, nil
}

func publish(ctx context.Context, broker realtime.Broker, topics ...string) {
	for _, topic := range topics {
		if err := broker.Publish(ctx, topic); err != nil {
			log.Printf("failed to publish %s: %v", topic, err)
		}
	}
}

// Stamper выдает строго возрастающие метки времени с шагом step.
type Stamper struct {
	mu   sync.Mutex
	last time.Time
	step time.Duration
	now  func() time.Time
}

func NewStamper(step time.Duration) *Stamper {
	return &Stamper{step: step, now: time.Now}
}

func (s *Stamper) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC().Truncate(s.step)
	if !t.After(s.last) {
		t = s.last.Add(s.step)
	}
	s.last = t
	return t
}
