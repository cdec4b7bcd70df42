// Package memory is an in-process kanban.Store. Each owner's cards live in
// their own map, guarded by a per-owner mutex; a unit of work edits a copy of
// that map and swaps it in only when it succeeds.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"jobtracker/tracker-service/internal/kanban"
)

type board map[string]kanban.Application

// Store implements kanban.Store in memory.
type Store struct {
	mu     sync.RWMutex
	boards map[string]board
	locks  map[string]*sync.Mutex
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		boards: make(map[string]board),
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

func (s *Store) ownerLock(ownerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ownerID] = l
	}
	return l
}

// WithinOwner runs fn against a private copy of the owner's board and
// publishes the copy only if fn succeeds.
func (s *Store) WithinOwner(ctx context.Context, ownerID string, fn func(tx kanban.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.ownerLock(ownerID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	work := make(board, len(s.boards[ownerID]))
	for id, app := range s.boards[ownerID] {
		work[id] = clone(app)
	}
	s.mu.RUnlock()

	if err := fn(&tx{owner: ownerID, cards: work, now: s.now}); err != nil {
		return err
	}

	s.mu.Lock()
	if len(work) == 0 {
		delete(s.boards, ownerID)
	} else {
		s.boards[ownerID] = work
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (*kanban.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.boards[ownerID][id]
	if !ok {
		return nil, kanban.ErrNotFound
	}
	out := clone(app)
	return &out, nil
}

func (s *Store) List(ctx context.Context, ownerID string, status *kanban.Status) ([]kanban.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make([]kanban.Application, 0, len(s.boards[ownerID]))
	for _, app := range s.boards[ownerID] {
		if status != nil && app.Status != *status {
			continue
		}
		apps = append(apps, clone(app))
	}
	sortCards(apps)
	return apps, nil
}

func (s *Store) Owners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owners := make([]string, 0, len(s.boards))
	for owner := range s.boards {
		owners = append(owners, owner)
	}
	slices.Sort(owners)
	return owners, nil
}

// ─── Unit of work ─────────────────────────────────────────────────────────────

type tx struct {
	owner string
	cards board
	now   func() time.Time
}

func (t *tx) Get(ctx context.Context, id string) (*kanban.Application, error) {
	app, ok := t.cards[id]
	if !ok {
		return nil, kanban.ErrNotFound
	}
	out := clone(app)
	return &out, nil
}

func (t *tx) ListPartition(ctx context.Context, status kanban.Status) ([]kanban.Application, error) {
	var apps []kanban.Application
	for _, app := range t.cards {
		if app.Status == status {
			apps = append(apps, clone(app))
		}
	}
	sortCards(apps)
	return apps, nil
}

func (t *tx) Insert(ctx context.Context, app *kanban.Application) error {
	app.OwnerID = t.owner
	t.cards[app.ID] = clone(*app)
	return nil
}

func (t *tx) Update(ctx context.Context, app *kanban.Application) error {
	if _, ok := t.cards[app.ID]; !ok {
		return kanban.ErrNotFound
	}
	app.UpdatedAt = t.now().UTC()
	t.cards[app.ID] = clone(*app)
	return nil
}

func (t *tx) ApplyShifts(ctx context.Context, shifts []kanban.Shift) error {
	now := t.now().UTC()
	for _, sh := range shifts {
		app, ok := t.cards[sh.ID]
		if !ok {
			return kanban.ErrNotFound
		}
		app.OrderIndex = sh.NewIndex
		app.UpdatedAt = now
		t.cards[sh.ID] = app
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, id string) error {
	if _, ok := t.cards[id]; !ok {
		return kanban.ErrNotFound
	}
	delete(t.cards, id)
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func clone(app kanban.Application) kanban.Application {
	app.HistoryLog = slices.Clone(app.HistoryLog)
	return app
}

// sortCards orders by board column, then position, then ID.
func sortCards(apps []kanban.Application) {
	rank := make(map[kanban.Status]int)
	for i, st := range kanban.Statuses() {
		rank[st] = i
	}
	slices.SortFunc(apps, func(a, b kanban.Application) int {
		if c := cmp.Compare(rank[a.Status], rank[b.Status]); c != 0 {
			return c
		}
		if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
