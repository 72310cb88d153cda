package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"wellnesshub/internal/model"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	users    map[string]model.User
	failWith error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: map[string]model.Session{},
		users:    map[string]model.User{},
	}
}

func cloneSession(s model.Session) model.Session {
	s.Tags = append([]string(nil), s.Tags...)
	return s
}

func (m *memSessionStore) Create(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.sessions[session.ID]; ok {
		return fmt.Errorf("duplicate id %s", session.ID)
	}
	m.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (m *memSessionStore) Update(_ context.Context, userID string, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	existing, ok := m.sessions[session.ID]
	if !ok || existing.UserID != userID {
		return nil
	}
	updated := cloneSession(*session)
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	m.sessions[session.ID] = updated
	return nil
}

func (m *memSessionStore) ListByUserID(_ context.Context, userID string) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Session{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memSessionStore) ListPublished(_ context.Context) ([]model.PublishedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []model.PublishedSession{}
	for _, s := range m.sessions {
		if s.Status != model.SessionStatusPublished {
			continue
		}
		item := model.PublishedSession{Session: cloneSession(s)}
		if u, ok := m.users[s.UserID]; ok {
			item.Author = u.Author()
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memSessionStore) GetByIDAndUserID(_ context.Context, sessionID, userID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	c := cloneSession(s)
	return &c, nil
}

func (m *memSessionStore) DeleteByIDAndUserID(_ context.Context, sessionID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(m.sessions, sessionID)
	return true, nil
}

func (m *memSessionStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (m *memUserStore) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

type memFeedCache struct {
	sessions    []model.PublishedSession
	hit         bool
	gets        int
	sets        int
	invalidated int
}

func (c *memFeedCache) GetPublished(context.Context) ([]model.PublishedSession, bool, error) {
	c.gets++
	return c.sessions, c.hit, nil
}

func (c *memFeedCache) SetPublished(_ context.Context, sessions []model.PublishedSession) error {
	c.sets++
	c.sessions = sessions
	c.hit = true
	return nil
}

func (c *memFeedCache) Invalidate(context.Context) error {
	c.invalidated++
	c.sessions = nil
	c.hit = false
	return nil
}

type recordingPublisher struct {
	events []model.SessionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.SessionEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type memObjectStorage struct {
	objects map[string][]byte
	err     error
}

func (m *memObjectStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

var errStoreDown = errors.New("store down")

// steppingClock returns a strictly increasing time on each call.
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}
