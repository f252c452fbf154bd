package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// KeyPrefix namespaces the durable record of each browser session.
const KeyPrefix = "neuro21_user:"

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per browser session id.
type Registry struct {
	deps   Deps
	onNew  func(sid string, store *Store)
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	stores map[string]*entry
}

// NewRegistry builds a registry whose stores share deps. onNew, when set,
// runs once for every store the registry creates, before it is initialised.
func NewRegistry(deps Deps, onNew func(sid string, store *Store)) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		deps:   deps,
		onNew:  onNew,
		logger: logger,
		now:    time.Now,
		stores: make(map[string]*entry),
	}
}

// Get returns the store of session sid, creating and initialising it from
// durable storage on first use.
func (r *Registry) Get(ctx context.Context, sid string) *Store {
	r.mu.Lock()
	if e, ok := r.stores[sid]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.store
	}
	store := NewStore(KeyPrefix+sid, r.deps)
	r.stores[sid] = &entry{store: store, lastSeen: r.now()}
	r.mu.Unlock()

	if r.onNew != nil {
		r.onNew(sid, store)
	}
	// Init failures are recorded in the store's snapshot.
	_ = store.Init(ctx)
	return store
}

// Len reports how many stores are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops stores idle for longer than idle. Stores with an operation in
// flight are kept. Durable records survive and a later Get rehydrates them.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for sid, e := range r.stores {
		if e.lastSeen.Before(cutoff) && !e.store.Busy() {
			delete(r.stores, sid)
			removed++
		}
	}
	return removed
}

// Run sweeps idle stores every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug("swept idle sessions", slog.Int("count", n))
			}
		}
	}
}
