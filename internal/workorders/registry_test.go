package workorders

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopMigrator struct{}

func (noopMigrator) Migrate(context.Context, string) error { return nil }

func TestRegistryReturnsSameStorePerSchema(t *testing.T) {
	reg := NewRegistry(nil, fakeLookups{}, noopMigrator{})

	a := reg.Store("acme_water_12")
	b := reg.Store("acme_water_12")
	other := reg.Store("riverside_7")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestRegistryConcurrentAccessYieldsOneStore(t *testing.T) {
	reg := NewRegistry(nil, fakeLookups{}, noopMigrator{})

	const n = 32
	stores := make([]*Store, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			stores[i] = reg.Store("acme_water_12")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, stores[0], stores[i])
	}
}

func TestRegistryForgetDropsStore(t *testing.T) {
	reg := NewRegistry(nil, fakeLookups{}, noopMigrator{})

	a := reg.Store("acme_water_12")
	reg.Forget("acme_water_12")
	b := reg.Store("acme_water_12")

	assert.NotSame(t, a, b)
}
