package store

import (
	"context"
	"sort"
	"sync"

	"github.com/graceteusch/chess/internal/engine"
)

// Memory is an in-process implementation of all three store contracts,
// used when no REDIS_URL is configured and throughout the tests.
type Memory struct {
	mu sync.RWMutex

	nextGameID int64
	games      map[int64]*GameRecord
	auths      map[string]string
	users      map[string]*UserRecord
}

func NewMemory() *Memory {
	return &Memory{
		games: make(map[int64]*GameRecord),
		auths: make(map[string]string),
		users: make(map[string]*UserRecord),
	}
}

func (m *Memory) CreateAuth(ctx context.Context, token, username string) error {
	m.mu.Lock()
	m.auths[token] = username
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetAuth(ctx context.Context, token string) (*AuthRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	username, ok := m.auths[token]
	if !ok {
		return nil, nil
	}
	return &AuthRecord{Token: token, Username: username}, nil
}

func (m *Memory) DeleteAuth(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.auths, token)
	m.mu.Unlock()
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, user *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Username]; exists {
		return ErrDuplicateUser
	}
	cp := *user
	m.users[user.Username] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, username string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateGame(ctx context.Context, name string, game *engine.Game) (*GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextGameID++
	rec := &GameRecord{ID: m.nextGameID, Name: name, Game: game}
	m.games[rec.ID] = cloneRecord(rec)
	return rec, nil
}

func (m *Memory) GetGame(ctx context.Context, id int64) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (m *Memory) ListGames(ctx context.Context, limit int) ([]*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*GameRecord, 0, len(m.games))
	for _, rec := range m.games {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateGame(ctx context.Context, rec *GameRecord) error {
	m.mu.Lock()
	m.games[rec.ID] = cloneRecord(rec)
	m.mu.Unlock()
	return nil
}

// cloneRecord copies the record and its game so callers never share
// mutable state with the store.
func cloneRecord(rec *GameRecord) *GameRecord {
	cp := *rec
	if rec.Game != nil {
		cp.Game = engine.NewGameFrom(rec.Game.Board().Clone(), rec.Game.Turn())
		if rec.Game.Over() {
			cp.Game.Resign()
		}
	}
	return &cp
}
