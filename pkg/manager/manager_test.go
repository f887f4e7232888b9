package manager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmeddeb/gitfleet/pkg/manager"
	"github.com/bmeddeb/gitfleet/pkg/token"
)

func TestNew_SeedsOneTaskPerDistinctURL(t *testing.T) {
	m := manager.New(
		[]string{"https://example/a", "https://example/a", "https://example/b"},
		[]token.Credential{{Identifier: "default", Secret: "secret"}},
		manager.Config{},
		nil,
	)

	snap := m.SnapshotTasks()
	require.Len(t, snap, 2)
	assert.Contains(t, snap, "https://example/a")
	assert.Contains(t, snap, "https://example/b")
}

func TestNew_SeedsTokenPool(t *testing.T) {
	m := manager.New(nil, []token.Credential{{Identifier: "default", Secret: "secret"}}, manager.Config{}, nil)

	assert.Equal(t, 1, m.Tokens().Len())
}

func TestProvider_FalseWhenNoCredentials(t *testing.T) {
	m := manager.New(nil, nil, manager.Config{}, nil)

	_, ok := m.Provider(context.Background())
	assert.False(t, ok)
}
