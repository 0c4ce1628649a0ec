package service

import (
	"context"
	"sync"
	"time"

	"github.com/sifan077/PowerBio/internal/app/model"
	"github.com/sifan077/PowerBio/internal/app/repository"
)

// memoryLinkRepository is an in-memory ShortLinkRepository with the same
// relative-increment semantics as the SQL one.
type memoryLinkRepository struct {
	mu          sync.Mutex
	byID        map[string]*model.ShortLink
	byCodeCalls int

	createFn    func(ctx context.Context, link *model.ShortLink) error
	incrementFn func(ctx context.Context, id string) (int64, error)
}

func newMemoryLinkRepository(links ...model.ShortLink) *memoryLinkRepository {
	r := &memoryLinkRepository{byID: make(map[string]*model.ShortLink)}
	for i := range links {
		l := links[i]
		r.byID[l.ID] = &l
	}
	return r
}

func (r *memoryLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if r.createFn != nil {
		if err := r.createFn(ctx, link); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if code := link.ShortCode(); code != "" {
		for _, l := range r.byID {
			if l.ShortCode() == code {
				return repository.ErrDuplicateCode
			}
		}
	}
	cp := *link
	cp.CreatedAt = time.Now()
	r.byID[link.ID] = &cp
	return nil
}

func (r *memoryLinkRepository) GetByID(_ context.Context, id string) (*model.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrShortLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memoryLinkRepository) GetByCode(_ context.Context, code string) (*model.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCodeCalls++
	for _, l := range r.byID {
		if l.ShortCode() == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrShortLinkNotFound
}

func (r *memoryLinkRepository) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if l.ShortCode() == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryLinkRepository) ListByUser(_ context.Context, userID, profileID string) ([]model.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ShortLink
	for _, l := range r.byID {
		if l.UserID == userID && (profileID == "" || l.ProfileID == profileID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memoryLinkRepository) IncrementClicks(ctx context.Context, id string) (int64, error) {
	if r.incrementFn != nil {
		return r.incrementFn(ctx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return 0, repository.ErrShortLinkNotFound
	}
	l.Clicks++
	return l.Clicks, nil
}

func (r *memoryLinkRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return repository.ErrShortLinkNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memoryLinkRepository) clicks(id string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clicks
}

func (r *memoryLinkRepository) lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCodeCalls
}

type mockProfileDirectory struct {
	profiles map[string]model.Profile
	blocks   map[string]model.Block
	listFn   func(ctx context.Context, profileID string) ([]model.Block, error)
}

func (m *mockProfileDirectory) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (m *mockProfileDirectory) GetBlock(_ context.Context, id string) (*model.Block, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, repository.ErrBlockNotFound
	}
	return &b, nil
}

func (m *mockProfileDirectory) ListBlocks(ctx context.Context, profileID string) ([]model.Block, error) {
	if m.listFn != nil {
		return m.listFn(ctx, profileID)
	}
	var out []model.Block
	for _, b := range m.blocks {
		if b.ProfileID == profileID {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockEventRepository struct {
	mu      sync.Mutex
	created []model.AnalyticsEvent

	createFn    func(ctx context.Context, event *model.AnalyticsEvent) error
	listRangeFn func(ctx context.Context, profileID string, from, to time.Time) ([]model.AnalyticsEvent, error)
}

func (m *mockEventRepository) Create(ctx context.Context, event *model.AnalyticsEvent) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.created = append(m.created, *event)
	m.mu.Unlock()
	return nil
}

func (m *mockEventRepository) ListRange(ctx context.Context, profileID string, from, to time.Time) ([]model.AnalyticsEvent, error) {
	if m.listRangeFn != nil {
		return m.listRangeFn(ctx, profileID, from, to)
	}
	return nil, nil
}

// recordingScheduler keeps scheduled tasks instead of running them.
type recordingScheduler struct {
	mu    sync.Mutex
	tasks []model.ClickCountTask
}

func (s *recordingScheduler) Schedule(task model.ClickCountTask) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
}

func (s *recordingScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
