package job

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// Store tracks jobs by id. Get returns a defensive copy; Update runs its
// mutation under the store lock, so the owning worker is the only writer
// of a job's entry and readers never observe a half-applied update.
type Store interface {
	Create(j *model.Job) error
	Get(id string) (*model.Job, error)
	Update(id string, fn func(*model.Job)) error
}

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = eris.New("job: not found")

// MemoryStore is the in-process job store. Jobs live for the lifetime of
// the server; there is no eviction.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Create(j *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[j.ID]; exists {
		return eris.Errorf("job: duplicate id %s", j.ID)
	}
	s.jobs[j.ID] = j.Clone()
	return nil
}

func (s *MemoryStore) Get(id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

func (s *MemoryStore) Update(id string, fn func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(j)
	return nil
}
