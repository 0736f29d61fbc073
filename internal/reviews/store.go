package reviews

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the persistence boundary for reviews. Batched writes are chunked
// internally; each chunk is applied as a single all-or-nothing unit.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Review, error)
	FindBySteamID(ctx context.Context, steamID string) (*Review, error)
	FindByGameID(ctx context.Context, gameID int64) ([]*Review, error)
	FindByGameIDPaginated(ctx context.Context, gameID int64, offset, limit int) ([]*Review, error)
	CountByGameID(ctx context.Context, gameID int64) (int, error)
	BatchCreate(ctx context.Context, revs []*Review) error
	BatchUpdate(ctx context.Context, revs []*Review) error
	MarkRemovedExcept(ctx context.Context, gameID int64, keepSteamIDs []string) error
}

// InMemoryStore is a threadsafe in-memory store for tests
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[int64]*Review
	bySteamID map[string]*Review
	nextID    int64
	now       func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[int64]*Review),
		bySteamID: make(map[string]*Review),
		nextID:    1,
		now:       time.Now,
	}
}

func (s *InMemoryStore) FindByID(ctx context.Context, id int64) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReview(r), nil
}

func (s *InMemoryStore) FindBySteamID(ctx context.Context, steamID string) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.bySteamID[steamID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReview(r), nil
}

func (s *InMemoryStore) FindByGameID(ctx context.Context, gameID int64) ([]*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Review, 0)
	for _, r := range s.byID {
		if r.GameID == gameID && !r.Removed {
			out = append(out, cloneReview(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindByGameIDPaginated(ctx context.Context, gameID int64, offset, limit int) ([]*Review, error) {
	all, err := s.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return []*Review{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemoryStore) CountByGameID(ctx context.Context, gameID int64) (int, error) {
	all, err := s.FindByGameID(ctx, gameID)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *InMemoryStore) BatchCreate(ctx context.Context, revs []*Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range revs {
		if _, exists := s.bySteamID[r.SteamID]; exists {
			return &DuplicateError{SteamID: r.SteamID}
		}
	}
	for _, r := range revs {
		cp := cloneReview(r)
		cp.ID = s.nextID
		s.nextID++
		s.byID[cp.ID] = cp
		s.bySteamID[cp.SteamID] = cp
		r.ID = cp.ID
	}
	return nil
}

func (s *InMemoryStore) BatchUpdate(ctx context.Context, revs []*Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range revs {
		if _, ok := s.bySteamID[r.SteamID]; !ok {
			return ErrNotFound
		}
	}
	for _, r := range revs {
		old := s.bySteamID[r.SteamID]
		cp := cloneReview(r)
		cp.ID = old.ID
		cp.CreatedAt = old.CreatedAt
		s.byID[cp.ID] = cp
		s.bySteamID[cp.SteamID] = cp
	}
	return nil
}

func (s *InMemoryStore) MarkRemovedExcept(ctx context.Context, gameID int64, keepSteamIDs []string) error {
	keep := make(map[string]struct{}, len(keepSteamIDs))
	for _, id := range keepSteamIDs {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.GameID != gameID || r.Removed {
			continue
		}
		if _, ok := keep[r.SteamID]; !ok {
			r.Removed = true
			r.UpdatedAt = s.now()
		}
	}
	return nil
}

func cloneReview(r *Review) *Review {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
