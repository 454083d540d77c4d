package plugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/plugin"
)

// =============================================================================
// Registry tests
// =============================================================================

type stubProcessor struct{}

func (stubProcessor) OnTrigger(ctx context.Context, session plugin.Session) error { return nil }

func TestRegistry_NewUnknownClassErrors(t *testing.T) {
	r := plugin.NewRegistry()
	_, err := r.New("does.not.Exist")
	assert.Error(t, err)
}

func TestRegistry_RegisterThenNewSucceeds(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("example.Stub", func() (plugin.Processor, error) { return stubProcessor{}, nil })

	assert.True(t, r.Lookup("example.Stub"))
	proc, err := r.New("example.Stub")
	require.NoError(t, err)
	assert.NotNil(t, proc)
}

// =============================================================================
// Class-loader scope restoration (spec.md §5, §9)
// =============================================================================

func TestEnter_RestoresPreviousScopeOnRelease(t *testing.T) {
	assert.Equal(t, "", plugin.Active())

	release := plugin.Enter("example.Outer")
	assert.Equal(t, "example.Outer", plugin.Active())

	inner := plugin.Enter("example.Inner")
	assert.Equal(t, "example.Inner", plugin.Active())
	inner()
	assert.Equal(t, "example.Outer", plugin.Active())

	release()
	assert.Equal(t, "", plugin.Active())
}

func TestEnter_RestoresOnPanicUnwind(t *testing.T) {
	assert.Equal(t, "", plugin.Active())

	func() {
		defer func() {
			_ = recover()
		}()
		release := plugin.Enter("example.Panicking")
		defer release()
		panic("boom")
	}()

	assert.Equal(t, "", plugin.Active())
}
