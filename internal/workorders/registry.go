package workorders

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry hands out the single Store instance per project schema. It is
// owned by the composition root and injected where needed, so tests can
// build isolated registries. Concurrent first access to a schema yields one
// store and therefore one migration attempt.
type Registry struct {
	pool     *pgxpool.Pool
	lookups  Lookups
	migrator SchemaMigrator

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(pool *pgxpool.Pool, lk Lookups, mig SchemaMigrator) *Registry {
	return &Registry{
		pool:     pool,
		lookups:  lk,
		migrator: mig,
		stores:   make(map[string]*Store),
	}
}

// Store returns the store for a schema, constructing it on first access.
func (r *Registry) Store(schema string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[schema]; ok {
		return s
	}
	s := NewStore(r.pool, schema, r.lookups, r.migrator)
	r.stores[schema] = s
	return s
}

// Forget drops the cached store after its schema was destroyed.
func (r *Registry) Forget(schema string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, schema)
}
