package clone

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DuplicateURLsCoalesced(t *testing.T) {
	o := New([]string{"https://example/a", "https://example/a", "https://example/b"}, Config{}, nil, nil, nil)

	assert.Len(t, o.tasks, 2)
	assert.Len(t, o.order, 2)
}

func TestSubmitAll_SuccessPath(t *testing.T) {
	o := New([]string{"https://example/a", "https://example/b"}, Config{MaxWorkers: 2}, nil, nil, nil)
	o.cloneFn = func(_ context.Context, _, _ string, report func(int)) error {
		report(50)
		report(100)
		return nil
	}

	require.NoError(t, o.SubmitAll(context.Background()))

	snap := o.SnapshotTasks()
	require.Len(t, snap, 2)
	for _, task := range snap {
		assert.Equal(t, Completed, task.Status.Tag)
		assert.NotEmpty(t, task.TempDir)
		assert.Empty(t, task.Status.Message)
	}
}

func TestSubmitAll_OneBadURL(t *testing.T) {
	o := New([]string{"https://example/good", "https://example/does-not-exist"}, Config{MaxWorkers: 2}, nil, nil, nil)
	o.cloneFn = func(_ context.Context, url, _ string, report func(int)) error {
		if url == "https://example/does-not-exist" {
			return errors.New("repository not found")
		}
		report(100)
		return nil
	}

	require.NoError(t, o.SubmitAll(context.Background()))

	snap := o.SnapshotTasks()
	assert.Equal(t, Completed, snap["https://example/good"].Status.Tag)
	assert.Equal(t, Failed, snap["https://example/does-not-exist"].Status.Tag)
	assert.NotEmpty(t, snap["https://example/does-not-exist"].Status.Message)
}

func TestSubmitAll_ProgressIsMonotonic(t *testing.T) {
	o := New([]string{"https://example/a"}, Config{}, nil, nil, nil)

	var seen []int
	o.cloneFn = func(_ context.Context, url, _ string, report func(int)) error {
		for _, p := range []int{0, 10, 40, 30, 80, 100} {
			report(p)
			o.mu.Lock()
			seen = append(seen, o.tasks[url].Status.Progress)
			o.mu.Unlock()
		}
		return nil
	}

	require.NoError(t, o.SubmitAll(context.Background()))

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestSubmitAll_NoProgressEventsStillTicksThroughCloning(t *testing.T) {
	o := New([]string{"https://example/a"}, Config{}, nil, nil, nil)
	var during Status
	o.cloneFn = func(_ context.Context, url, _ string, _ func(int)) error {
		o.mu.Lock()
		during = o.tasks[url].Status
		o.mu.Unlock()
		return nil
	}

	require.NoError(t, o.SubmitAll(context.Background()))

	assert.Equal(t, Cloning, during.Tag)
	assert.Equal(t, 0, during.Progress)

	snap := o.SnapshotTasks()
	assert.Equal(t, Completed, snap["https://example/a"].Status.Tag)
}

func TestCleanup_RejectsActiveTask(t *testing.T) {
	o := New([]string{"https://example/a"}, Config{}, nil, nil, nil)
	o.transitionToCloning("https://example/a", "/tmp/whatever")

	out := o.Cleanup(context.Background())
	require.Error(t, out["https://example/a"])
	assert.Contains(t, out["https://example/a"].Error(), "active")
}

func TestCleanup_Idempotent(t *testing.T) {
	dir := t.TempDir()

	o := New([]string{"https://example/a"}, Config{}, nil, nil, nil)
	o.transitionToCompleted("https://example/a", dir)

	first := o.Cleanup(context.Background())
	assert.NoError(t, first["https://example/a"])

	second := o.Cleanup(context.Background())
	assert.NoError(t, second["https://example/a"])

	_, statErr := os.Stat(dir)
	assert.Error(t, statErr)
}

func TestCloneOne_RejectsURLNotInTaskSet(t *testing.T) {
	o := New([]string{"https://example/a"}, Config{}, nil, nil, nil)

	err := o.CloneOne(context.Background(), "https://example/not-tracked")
	assert.Error(t, err)
}
