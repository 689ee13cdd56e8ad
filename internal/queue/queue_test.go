package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/livebridge/internal/registry"
)

func TestQueueFIFO(t *testing.T) {
	t.Parallel()

	q := New(0)
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Push(Command{ID: registry.ID(i), Action: "ping"}))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		cmd, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, registry.ID(i), cmd.ID)
	}

	_, ok := q.TryPop()
	assert.False(t, ok, "empty queue must not block or return a command")
	assert.Equal(t, 0, q.Len())
}

func TestQueueBounded(t *testing.T) {
	t.Parallel()

	q := New(2)
	require.NoError(t, q.Push(Command{ID: 1}))
	require.NoError(t, q.Push(Command{ID: 2}))
	assert.ErrorIs(t, q.Push(Command{ID: 3}), ErrQueueFull)

	_, ok := q.TryPop()
	require.True(t, ok)
	assert.NoError(t, q.Push(Command{ID: 3}))
}

func TestQueueCompactionKeepsOrder(t *testing.T) {
	t.Parallel()

	q := New(0)
	next := registry.ID(1)
	want := registry.ID(1)
	for round := 0; round < 50; round++ {
		for i := 0; i < 10; i++ {
			require.NoError(t, q.Push(Command{ID: next}))
			next++
		}
		for i := 0; i < 7; i++ {
			cmd, ok := q.TryPop()
			require.True(t, ok)
			require.Equal(t, want, cmd.ID)
			want++
		}
	}
	for {
		cmd, ok := q.TryPop()
		if !ok {
			break
		}
		require.Equal(t, want, cmd.ID)
		want++
	}
	assert.Equal(t, next, want)
}

func TestQueueConcurrentProducers(t *testing.T) {
	t.Parallel()

	q := New(0)
	const producers, per = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				_ = q.Push(Command{ID: registry.ID(base*per + i + 1)})
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[registry.ID]bool, producers*per)
	for {
		cmd, ok := q.TryPop()
		if !ok {
			break
		}
		require.False(t, seen[cmd.ID], "duplicate id %d", cmd.ID)
		seen[cmd.ID] = true
	}
	assert.Len(t, seen, producers*per)
}
