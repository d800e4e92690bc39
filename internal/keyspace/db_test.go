package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	id    int64
	dirty bool
}

func (f *fakeWatcher) MarkDirtyCAS() { f.dirty = true }
func (f *fakeWatcher) SessionID() int64 { return f.id }

func TestDBWatchTouchMarksWatcher(t *testing.T) {
	db := NewDB(0)
	w := &fakeWatcher{id: 1}

	db.Watch("foo", w)
	require.True(t, db.HasWatchers("foo"))

	db.Touch("foo")
	assert.True(t, w.dirty)
}

func TestDBTouchOnlyAffectsWatchersOfThatKey(t *testing.T) {
	db := NewDB(0)
	w1 := &fakeWatcher{id: 1}
	w2 := &fakeWatcher{id: 2}

	db.Watch("foo", w1)
	db.Watch("bar", w2)

	db.Touch("foo")

	assert.True(t, w1.dirty)
	assert.False(t, w2.dirty)
}

func TestDBTouchNotifiesAllWatchersOfSharedKey(t *testing.T) {
	db := NewDB(0)
	w1 := &fakeWatcher{id: 1}
	w2 := &fakeWatcher{id: 2}

	db.Watch("shared", w1)
	db.Watch("shared", w2)

	db.Touch("shared")

	assert.True(t, w1.dirty)
	assert.True(t, w2.dirty)
}

func TestDBUnwatchPrunesEmptyKeyEntry(t *testing.T) {
	db := NewDB(0)
	w := &fakeWatcher{id: 1}

	db.Watch("foo", w)
	db.Unwatch("foo", w)

	assert.False(t, db.HasWatchers("foo"))

	// Touch on an unwatched key must be a cheap no-op, not a panic.
	db.Touch("foo")
	assert.False(t, w.dirty)
}

func TestDBRemoveWatcherClearsMultipleKeys(t *testing.T) {
	db := NewDB(0)
	w := &fakeWatcher{id: 1}

	db.Watch("a", w)
	db.Watch("b", w)

	db.RemoveWatcher(w, []string{"a", "b"})

	assert.False(t, db.HasWatchers("a"))
	assert.False(t, db.HasWatchers("b"))
}

func TestDBTouchOnFlushOnlyTouchesExistingKeys(t *testing.T) {
	db := NewDB(0)
	w := &fakeWatcher{id: 1}

	db.Watch("present", w)

	existing := map[string]bool{"present": true}
	db.TouchOnFlush(func(key string) bool { return existing[key] })

	assert.True(t, w.dirty)
}

func TestDatabasesSelectOutOfRange(t *testing.T) {
	dbs := NewDatabases(4)
	assert.Equal(t, 4, dbs.Count())
	assert.NotNil(t, dbs.Get(0))
	assert.NotNil(t, dbs.Get(3))
	assert.Nil(t, dbs.Get(4))
	assert.Nil(t, dbs.Get(-1))
}

func TestDatabasesDirtyCounterAccumulates(t *testing.T) {
	dbs := NewDatabases(1)
	dbs.AddDirty(1)
	dbs.AddDirty(2)
	assert.EqualValues(t, 3, dbs.Dirty())
}
