// Package keyspace implements the per-database watch/CAS bookkeeping that
// WATCH, UNWATCH and EXEC rely on. It deliberately does not own the actual
// key -> value storage (that remains the data-type engine's concern, an
// external collaborator per the core's scope); it owns the two maps the
// transaction core is responsible for: which keys are watched, and by whom.
package keyspace

import "sync"

// Watcher is anything that can be marked dirty-CAS when a key it watches is
// touched. ClientSession implements this; keeping the interface narrow here
// avoids an import cycle between keyspace and session.
type Watcher interface {
	MarkDirtyCAS()
	SessionID() int64
}

// DB is one numbered keyspace database's watch bookkeeping.
type DB struct {
	id int

	mu          sync.Mutex
	watchedKeys map[string]map[int64]Watcher // key -> sessionID -> watcher
}

func NewDB(id int) *DB {
	return &DB{
		id:          id,
		watchedKeys: make(map[string]map[int64]Watcher),
	}
}

func (db *DB) ID() int { return db.id }

// Watch registers w as a watcher of key. Idempotent per (db, key, session).
func (db *DB) Watch(key string, w Watcher) {
	db.mu.Lock()
	defer db.mu.Unlock()

	set, ok := db.watchedKeys[key]
	if !ok {
		set = make(map[int64]Watcher)
		db.watchedKeys[key] = set
	}
	set[w.SessionID()] = w
}

// Unwatch removes w from key's watcher set, pruning the key entry once it is
// empty.
func (db *DB) Unwatch(key string, w Watcher) {
	db.mu.Lock()
	defer db.mu.Unlock()

	set, ok := db.watchedKeys[key]
	if !ok {
		return
	}
	delete(set, w.SessionID())
	if len(set) == 0 {
		delete(db.watchedKeys, key)
	}
}

// Touch marks every session watching key as dirty-CAS. Called by any write
// that mutates the value stored under key, regardless of which session
// issued the write - a key touch poisons ALL watchers, not just the writer.
func (db *DB) Touch(key string) {
	db.mu.Lock()
	watchers := make([]Watcher, 0, len(db.watchedKeys[key]))
	for _, w := range db.watchedKeys[key] {
		watchers = append(watchers, w)
	}
	db.mu.Unlock()

	for _, w := range watchers {
		w.MarkDirtyCAS()
	}
}

// TouchMany is a convenience wrapper for write commands that touch several
// keys in one call (MSET, DEL with multiple keys, ...).
func (db *DB) TouchMany(keys []string) {
	for _, key := range keys {
		db.Touch(key)
	}
}

// HasWatchers reports whether key is currently watched by anyone. It takes
// the DB's lock like every other method here.
func (db *DB) HasWatchers(key string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.watchedKeys[key]
	return ok
}

// existsFunc reports whether key currently holds a value; TouchOnFlush uses
// it to decide whether a flushed key should poison its watchers (a key that
// never existed was not removed by the flush, so it must not count).
type existsFunc func(key string) bool

// TouchOnFlush marks dirty-CAS every session watching a key in this DB that
// currently exists, in response to FLUSHDB/FLUSHALL. Keys that were never
// populated are left alone.
func (db *DB) TouchOnFlush(exists existsFunc) {
	db.mu.Lock()
	keys := make([]string, 0, len(db.watchedKeys))
	for key := range db.watchedKeys {
		keys = append(keys, key)
	}
	db.mu.Unlock()

	for _, key := range keys {
		if exists(key) {
			db.Touch(key)
		}
	}
}

// RemoveWatcher drops w from every key it watches in this DB; used when a
// session disconnects or calls UNWATCH for keys local to this DB.
func (db *DB) RemoveWatcher(w Watcher, keys []string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, key := range keys {
		if set, ok := db.watchedKeys[key]; ok {
			delete(set, w.SessionID())
			if len(set) == 0 {
				delete(db.watchedKeys, key)
			}
		}
	}
}
