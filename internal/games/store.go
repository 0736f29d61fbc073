package games

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the persistence boundary for games.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Game, error)
	FindByAppID(ctx context.Context, appID int64) (*Game, error)
	FindAll(ctx context.Context) ([]*Game, error)
	Create(ctx context.Context, g *Game) error
}

// InMemoryStore is a threadsafe in-memory store for tests
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[int64]*Game
	byAppID map[int64]*Game
	nextID  int64
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[int64]*Game),
		byAppID: make(map[int64]*Game),
		nextID:  1,
		now:     time.Now,
	}
}

func (s *InMemoryStore) FindByID(ctx context.Context, id int64) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGame(g), nil
}

func (s *InMemoryStore) FindByAppID(ctx context.Context, appID int64) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byAppID[appID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGame(g), nil
}

func (s *InMemoryStore) FindAll(ctx context.Context) ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Game, 0, len(s.byID))
	for _, g := range s.byID {
		out = append(out, cloneGame(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Create(ctx context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byAppID[g.AppID]; exists {
		return &DuplicateError{AppID: g.AppID}
	}
	cp := cloneGame(g)
	cp.ID = s.nextID
	s.nextID++
	cp.CreatedAt = s.now()
	cp.UpdatedAt = cp.CreatedAt
	s.byID[cp.ID] = cp
	s.byAppID[cp.AppID] = cp
	g.ID = cp.ID
	g.CreatedAt = cp.CreatedAt
	g.UpdatedAt = cp.UpdatedAt
	return nil
}

func cloneGame(g *Game) *Game {
	if g == nil {
		return nil
	}
	cp := *g
	return &cp
}
