package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type CaptionRepository struct {
	mu       sync.RWMutex
	captions map[string]map[string]string
}

func NewCaptionRepository() *CaptionRepository {
	return &CaptionRepository{captions: make(map[string]map[string]string)}
}

func (r *CaptionRepository) Upsert(_ context.Context, caption *model.Caption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.captions[caption.ChatID] == nil {
		r.captions[caption.ChatID] = make(map[string]string)
	}
	r.captions[caption.ChatID][caption.FileID] = caption.Text
	return nil
}

func (r *CaptionRepository) ListForChat(_ context.Context, chatID string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := maps.Clone(r.captions[chatID])
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

type sessionEntry struct {
	session   model.Session
	expiresAt time.Time
}

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]sessionEntry
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]sessionEntry)}
}

func (r *SessionRepository) Save(_ context.Context, session *model.Session, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := sessionEntry{session: *session}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	r.sessions[session.Token] = entry
	return nil
}

func (r *SessionRepository) Get(_ context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(r.sessions, token)
		return nil, repository.ErrNotFound
	}
	session := entry.session
	return &session, nil
}

func (r *SessionRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

type ScratchRepository struct {
	mu       sync.RWMutex
	messages map[string]model.ScratchMessage
}

func NewScratchRepository() *ScratchRepository {
	return &ScratchRepository{messages: make(map[string]model.ScratchMessage)}
}

func (r *ScratchRepository) Add(_ context.Context, msg model.ScratchMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[msg.ID] = msg
	return nil
}

func (r *ScratchRepository) List(_ context.Context) ([]model.ScratchMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ScratchMessage, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ScratchRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.messages)
	return nil
}
