package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vellum/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "event channel closed early")
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return core.Event{}
	}
}

func TestStore_Watch(t *testing.T) {
	s := openTestStore(t)
	ns, err := s.Create("docs")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx, "DOCS")
	require.NoError(t, err)

	doc, err := ns.Create()
	require.NoError(t, err)
	defer doc.Release()

	e := nextEvent(t, events)
	assert.Equal(t, core.EventCreate, e.Type)
	assert.Equal(t, "docs", e.Namespace)
	assert.Equal(t, doc.ID(), e.ID)

	require.NoError(t, doc.WriteField("name", core.NewString("alice")))
	e = nextEvent(t, events)
	assert.Equal(t, core.EventModify, e.Type)
	assert.Equal(t, doc.ID(), e.ID)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "channel must close after cancel")
}

func TestStore_WatchUnknownNamespace(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Watch(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_WatchStopsOnClose(t *testing.T) {
	s, err := Open(Config{Path: t.TempDir(), IDPoolMin: 2, IDPoolMax: 8, IDLength: 24})
	require.NoError(t, err)
	_, err = s.Create("docs")
	require.NoError(t, err)

	events, err := s.Watch(context.Background(), "docs")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	select {
	case _, ok := <-events:
		assert.False(t, ok, "no events expected after Close")
	default:
		t.Fatal("Close must wait for the watcher and close its channel")
	}

	_, err = s.Watch(context.Background(), "docs")
	assert.ErrorIs(t, err, core.ErrClosed)
}

// TestStore_WatchWithoutLock shows a read-only watcher that skips the
// ownership lock observing writes made by the store that owns the root.
func TestStore_WatchWithoutLock(t *testing.T) {
	root := t.TempDir()
	setup, err := Open(Config{Path: root})
	require.NoError(t, err)
	_, err = setup.Create("docs")
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	watcher, err := Open(Config{Path: root, NoLock: true})
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := watcher.Watch(ctx, "docs")
	require.NoError(t, err)

	writer, err := Open(Config{Path: root, IDPoolMin: 2, IDPoolMax: 8, IDLength: 24})
	require.NoError(t, err, "a watcher must not hold the root lock")
	defer writer.Close()

	ns, err := writer.Get("docs")
	require.NoError(t, err)
	doc, err := ns.Create()
	require.NoError(t, err)
	defer doc.Release()

	e := nextEvent(t, events)
	assert.Equal(t, core.EventCreate, e.Type)
	assert.Equal(t, doc.ID(), e.ID)

	require.NoError(t, doc.WriteField("n", core.NewInteger(1)))
	e = nextEvent(t, events)
	assert.Equal(t, core.EventModify, e.Type)
}
