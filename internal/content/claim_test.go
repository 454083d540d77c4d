package content_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"flowcore/internal/content"
)

// =============================================================================
// Claimant-count invariant tests
// =============================================================================

func TestManager_IncrementDecrement(t *testing.T) {
	m := content.NewManager()
	claim := m.NewClaim("c1", "s1", "id1", false)

	assert.Equal(t, int64(0), m.Count(claim))
	assert.Equal(t, int64(1), m.Increment(claim))
	assert.Equal(t, int64(2), m.Increment(claim))
	assert.Equal(t, int64(1), m.Decrement(claim))
	assert.Equal(t, int64(0), m.Decrement(claim))
}

func TestManager_DecrementNeverGoesNegative(t *testing.T) {
	m := content.NewManager()
	claim := m.NewClaim("c1", "s1", "id1", false)

	assert.Equal(t, int64(0), m.Decrement(claim))
	assert.Equal(t, int64(0), m.Count(claim))
}

func TestManager_DistinctKeysDoNotInterfere(t *testing.T) {
	m := content.NewManager()
	a := m.NewClaim("c1", "s1", "a", false)
	b := m.NewClaim("c1", "s1", "b", false)

	m.Increment(a)
	assert.Equal(t, int64(0), m.Count(b))
}

func TestManager_ConcurrentIncrementDecrement_NeverNegative(t *testing.T) {
	m := content.NewManager()
	claim := m.NewClaim("c1", "s1", "id1", false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Increment(claim)
		}()
		go func() {
			defer wg.Done()
			m.Decrement(claim)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, m.Count(claim), int64(0))
}
