package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/repository"
)

// scratchService плоская общая лента test/messages с ключами по времени.
type scratchService struct {
	repo    repository.ScratchRepository
	broker  realtime.Broker
	stamper *Stamper
}

func NewScratchService(repo repository.ScratchRepository, broker realtime.Broker) ScratchService {
	return &scratchService{repo: repo, broker: broker, stamper: NewStamper(time.Millisecond)}
}

func (s *scratchService) Subscribe(ctx context.Context, fn func([]model.ScratchMessage)) (Subscription, error) {
	return subscribe(ctx, s.broker, realtime.ScratchTopic, "scratch", s.List, fn)
}

func (s *scratchService) List(ctx context.Context) ([]model.ScratchMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scratch messages: %w", err)
	}
	if msgs == nil {
		msgs = []model.ScratchMessage{}
	}
	return msgs, nil
}

func (s *scratchService) SendTextMessage(ctx context.Context, userID, content string) (*model.ScratchMessage, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	ts := s.stamper.Next().UnixMilli()
	msg := model.ScratchMessage{
		ID:        strconv.FormatInt(ts, 10),
		UserID:    userID,
		Timestamp: ts,
		Content:   content,
		Type:      model.MessageTypeText,
	}
	if err := s.repo.Add(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save scratch message: %w", err)
	}

	publish(ctx, s.broker, realtime.ScratchTopic)
	return &msg, nil
}

func (s *scratchService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear scratch messages: %w", err)
	}
	publish(ctx, s.broker, realtime.ScratchTopic)
	return nil
}
