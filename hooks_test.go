package modkit

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookRegistryRegisterAndLookup(t *testing.T) {
	hooks := NewHookRegistry()

	require.NoError(t, hooks.RegisterInit("user.init", func(ctx context.Context, c *Container) error {
		return nil
	}))
	require.NoError(t, hooks.RegisterFactory("user.repository", func(ctx context.Context, c *Container) (any, error) {
		return struct{}{}, nil
	}))
	require.NoError(t, hooks.RegisterHandler("user.list", func(w http.ResponseWriter, r *http.Request) {}))

	_, ok := hooks.InitHook("user.init")
	assert.True(t, ok)
	_, ok = hooks.Factory("user.repository")
	assert.True(t, ok)
	_, ok = hooks.Handler("user.list")
	assert.True(t, ok)

	_, ok = hooks.InitHook("ghost")
	assert.False(t, ok)
}

func TestHookRegistryNamespacesAreIndependent(t *testing.T) {
	hooks := NewHookRegistry()

	// The same name may be reused across hook kinds.
	require.NoError(t, hooks.RegisterInit("user", func(ctx context.Context, c *Container) error {
		return nil
	}))
	require.NoError(t, hooks.RegisterFactory("user", func(ctx context.Context, c *Container) (any, error) {
		return nil, nil
	}))
	require.NoError(t, hooks.RegisterHealth("user", func(ctx context.Context) (map[string]any, error) {
		return nil, nil
	}))
}

func TestHookRegistryDuplicate(t *testing.T) {
	hooks := NewHookRegistry()

	init := func(ctx context.Context, c *Container) error { return nil }
	require.NoError(t, hooks.RegisterInit("user.init", init))

	err := hooks.RegisterInit("user.init", init)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHookAlreadyRegistered)
}

func TestHookRegistryNilHook(t *testing.T) {
	hooks := NewHookRegistry()

	assert.ErrorIs(t, hooks.RegisterInit("bad", nil), ErrHookNil)
	assert.ErrorIs(t, hooks.RegisterFactory("bad", nil), ErrHookNil)
	assert.ErrorIs(t, hooks.RegisterHandler("bad", nil), ErrHookNil)
	assert.ErrorIs(t, hooks.RegisterMiddleware("bad", nil), ErrHookNil)
	assert.ErrorIs(t, hooks.RegisterEventHandler("bad", nil), ErrHookNil)
	assert.ErrorIs(t, hooks.RegisterHealth("bad", nil), ErrHookNil)
}
