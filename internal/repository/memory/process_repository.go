package memory

import (
	"time"

	"ai-slidegen-be/internal/model"

	"github.com/patrickmn/go-cache"
)

// ProcessRepository keeps run state in memory. The TTL bounds both retention
// of finished runs and abandonment of runs that never reach a terminal
// state; everything disappears on its own, no sweep of ours required.
type ProcessRepository struct {
	cache *cache.Cache
}

func NewProcessRepository() *ProcessRepository {
	c := cache.New(2*time.Hour, 10*time.Minute)
	return &ProcessRepository{
		cache: c,
	}
}

func (r *ProcessRepository) Save(state *model.ProcessState) {
	r.cache.Set(state.ProcessID, state, cache.DefaultExpiration)
}

func (r *ProcessRepository) Get(processID string) (*model.ProcessState, bool) {
	if x, found := r.cache.Get(processID); found {
		return x.(*model.ProcessState), true
	}
	return nil, false
}
