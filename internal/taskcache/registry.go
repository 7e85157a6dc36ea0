package taskcache

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Raus17/task-buddy/internal/taskstore"
)

// Registry owns one Cache per user. Presentation code never touches
// a cache's task set directly, it goes through the cache operations.
type Registry struct {
	logger zerolog.Logger
	store  taskstore.Store

	mu     sync.RWMutex
	caches map[string]*Cache
}

func NewRegistry(
	logger zerolog.Logger,
	store taskstore.Store,
) *Registry {
	return &Registry{
		logger: logger,
		store:  store,
		caches: make(map[string]*Cache),
	}
}

// ForUser returns the user's cache, creating it on first use.
func (r *Registry) ForUser(userID string) *Cache {
	r.mu.RLock()
	cache, ok := r.caches[userID]
	r.mu.RUnlock()
	if ok {
		return cache
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cache, ok = r.caches[userID]
	if !ok {
		cache = New(r.logger, r.store, userID)
		r.caches[userID] = cache
	}
	return cache
}
