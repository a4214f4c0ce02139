package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"medisim/pkg/progression"
)

// memoryRepo keeps profiles in process. Each learner has its own lock, so
// updates for one learner are serialized while different learners never
// wait on each other.
type memoryRepo struct {
	mu       sync.RWMutex
	learners map[uuid.UUID]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	profile UserProfile
}

func NewMemoryRepository() Repository {
	return &memoryRepo{learners: make(map[uuid.UUID]*memoryEntry)}
}

func (r *memoryRepo) Create(_ context.Context, p *UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.learners[p.ID]; ok {
		return fmt.Errorf("learner %s already exists", p.ID)
	}
	p.derive()
	r.learners[p.ID] = &memoryEntry{profile: *p}
	return nil
}

func (r *memoryRepo) entry(id uuid.UUID) (*memoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.learners[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*UserProfile, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.profile
	return p.derive(), nil
}

func (r *memoryRepo) ApplyCaseResult(_ context.Context, id uuid.UUID, score, xp int) (*UserProfile, error) {
	return r.update(id, func(p *UserProfile) {
		p.ExperiencePoints += xp
		p.AverageScore = progression.RunningMean(p.AverageScore, p.CasesCompleted, score)
		p.CasesCompleted++
	})
}

func (r *memoryRepo) AddExperience(_ context.Context, id uuid.UUID, xp int) (*UserProfile, error) {
	return r.update(id, func(p *UserProfile) {
		p.ExperiencePoints += xp
	})
}

func (r *memoryRepo) update(id uuid.UUID, fn func(p *UserProfile)) (*UserProfile, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.profile)
	p := e.profile
	return p.derive(), nil
}
