package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, dir string) *EventQueue {
	t.Helper()
	q, err := NewEventQueue(dir)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueueFIFOWithinTopic(t *testing.T) {
	q := newTestQueue(t, t.TempDir())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Publish("events", []byte(fmt.Sprintf("event-%d", i))))
	}

	for i := 0; i < 10; i++ {
		data, err := q.ConsumeBlocking(ctx, "events")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("event-%d", i), string(data))
	}

	n, err := q.Len("events")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueTopicsAreIndependent(t *testing.T) {
	q := newTestQueue(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, q.Publish("a", []byte("for-a")))
	require.NoError(t, q.Publish("b", []byte("for-b")))

	data, err := q.ConsumeBlocking(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "for-b", string(data))

	n, err := q.Len("a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// 消費者會阻塞到有事件進來為止
func TestConsumeBlocksUntilPublish(t *testing.T) {
	q := newTestQueue(t, t.TempDir())

	type popResult struct {
		data []byte
		err  error
	}
	results := make(chan popResult, 1)
	go func() {
		data, err := q.ConsumeBlocking(context.Background(), "events")
		results <- popResult{data: data, err: err}
	}()

	select {
	case r := <-results:
		t.Fatalf("consume returned before publish: %v %v", r.data, r.err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Publish("events", []byte("wake up")))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, "wake up", string(r.data))
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not wake after publish")
	}
}

func TestConsumeReturnsOnContextCancel(t *testing.T) {
	q := newTestQueue(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := q.ConsumeBlocking(ctx, "events")
		errs <- err
	}()

	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consume did not return after cancel")
	}
}

// 尚未消費的事件在重開資料庫後仍然存在且順序不變
func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	q, err := NewEventQueue(dir)
	require.NoError(t, err)
	require.NoError(t, q.Publish("events", []byte("first")))
	require.NoError(t, q.Publish("events", []byte("second")))
	require.NoError(t, q.Close())

	q = newTestQueue(t, dir)
	ctx := context.Background()

	data, err := q.ConsumeBlocking(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	data, err = q.ConsumeBlocking(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

// 重開後的新事件序號必須接在舊事件之後
func TestSequenceAdvancesAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	q, err := NewEventQueue(dir)
	require.NoError(t, err)
	require.NoError(t, q.Publish("events", []byte("old")))
	require.NoError(t, q.Close())

	q = newTestQueue(t, dir)
	require.NoError(t, q.Publish("events", []byte("new")))

	ctx := context.Background()
	data, err := q.ConsumeBlocking(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	data, err = q.ConsumeBlocking(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}
