// Package session implements ClientSession: the per-connection state that
// carries a client's selected database, transaction queue and watch set.
// One Session exists per connected client for the lifetime of that
// connection; the dispatcher and transaction engine both operate on it.
package session

import (
	"sync"
	"sync/atomic"
)

// Flag is a bit in a session's status bitset.
type Flag uint32

const (
	// FlagInTx is set between MULTI and the matching EXEC/DISCARD.
	FlagInTx Flag = 1 << iota
	// FlagDirtyCAS is set once any watched key is touched after WATCH
	// (before or after MULTI); it forces EXEC to reply with a null array.
	FlagDirtyCAS
	// FlagDirtyExec is set when a command queued inside MULTI fails arity or
	// lookup validation at queue time; it forces EXEC to reply EXECABORT.
	FlagDirtyExec
	// FlagIsMaster marks this session's connection as role master (accepts
	// writes).
	FlagIsMaster
	// FlagIsReplica marks this session's connection as role replica
	// (read-only unless it is itself the replication link).
	FlagIsReplica
	// FlagMonitor marks the session as a MONITOR client: it receives a
	// replayed feed of every command dispatched elsewhere instead of issuing
	// its own.
	FlagMonitor
)

// QueuedCommand is one command queued by MULTI, awaiting EXEC or DISCARD.
// Args is a private copy of the argument strings so that a pipelined buffer
// reused by the connection layer cannot mutate a queued command underneath
// the transaction engine.
type QueuedCommand struct {
	Name string
	Args []string
}

// WatchedKey identifies a key in a specific database that a session has
// registered interest in via WATCH.
type WatchedKey struct {
	DB  int
	Key string
}

// Session is the per-connection transactional and addressing state.
type Session struct {
	id       int64
	peerAddr string

	mu        sync.Mutex
	name      string
	currentDB int
	flags     uint32
	queue     []QueuedCommand
	watched   []WatchedKey
}

// New creates a session bound to id (a process-unique identifier assigned by
// the caller) and peerAddr (the remote address, used for CLIENT LIST and
// SLOWLOG entries).
func New(id int64, peerAddr string) *Session {
	return &Session{
		id:       id,
		peerAddr: peerAddr,
	}
}

// SessionID implements keyspace.Watcher.
func (s *Session) SessionID() int64 { return s.id }

func (s *Session) PeerAddr() string { return s.peerAddr }

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *Session) CurrentDB() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDB
}

func (s *Session) SelectDB(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentDB = id
}

func (s *Session) hasFlag(f Flag) bool {
	return atomic.LoadUint32(&s.flags)&uint32(f) != 0
}

func (s *Session) setFlag(f Flag) {
	for {
		old := atomic.LoadUint32(&s.flags)
		if old&uint32(f) != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&s.flags, old, old|uint32(f)) {
			return
		}
	}
}

func (s *Session) clearFlag(f Flag) {
	for {
		old := atomic.LoadUint32(&s.flags)
		if old&uint32(f) == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&s.flags, old, old&^uint32(f)) {
			return
		}
	}
}

func (s *Session) InTx() bool       { return s.hasFlag(FlagInTx) }
func (s *Session) IsDirtyCAS() bool  { return s.hasFlag(FlagDirtyCAS) }
func (s *Session) IsDirtyExec() bool { return s.hasFlag(FlagDirtyExec) }
func (s *Session) IsMaster() bool    { return s.hasFlag(FlagIsMaster) }
func (s *Session) IsReplica() bool   { return s.hasFlag(FlagIsReplica) }
func (s *Session) IsMonitor() bool   { return s.hasFlag(FlagMonitor) }

// MarkDirtyCAS implements keyspace.Watcher. It is the only method on Session
// that a key touch (possibly from another goroutine, if the executor runs
// multiple readers) invokes directly, so it takes no lock beyond the atomic
// bit itself.
func (s *Session) MarkDirtyCAS() { s.setFlag(FlagDirtyCAS) }

func (s *Session) SetMaster(v bool) {
	if v {
		s.setFlag(FlagIsMaster)
	} else {
		s.clearFlag(FlagIsMaster)
	}
}

func (s *Session) SetReplica(v bool) {
	if v {
		s.setFlag(FlagIsReplica)
	} else {
		s.clearFlag(FlagIsReplica)
	}
}

func (s *Session) SetMonitor(v bool) {
	if v {
		s.setFlag(FlagMonitor)
	} else {
		s.clearFlag(FlagMonitor)
	}
}

// BeginTx opens a transaction. Idempotent re-entry (nested MULTI) is the
// caller's concern to reject; BeginTx itself clears the queue and DIRTY_EXEC.
// DIRTY_CAS is kept while keys are watched, so a touch between WATCH and
// MULTI still aborts the EXEC; with no watched keys it is cleared as stale.
func (s *Session) BeginTx() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFlag(FlagInTx)
	if len(s.watched) == 0 {
		s.clearFlag(FlagDirtyCAS)
	}
	s.clearFlag(FlagDirtyExec)
	s.queue = s.queue[:0]
}

// Enqueue appends cmd to the transaction queue. The caller must copy args if
// it does not already own them exclusively.
func (s *Session) Enqueue(name string, args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(args))
	copy(cp, args)
	s.queue = append(s.queue, QueuedCommand{Name: name, Args: cp})
}

// MarkQueueError implements the queue-time validation failure path (unknown
// command or bad arity while IN_TX): it sets DIRTY_EXEC so EXEC will abort.
func (s *Session) MarkQueueError() {
	s.setFlag(FlagDirtyExec)
}

// Queue returns a copy of the pending command queue.
func (s *Session) Queue() []QueuedCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueuedCommand, len(s.queue))
	copy(out, s.queue)
	return out
}

// QueueLen returns the number of commands currently queued.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// EndTx closes the transaction, clearing IN_TX, DIRTY_CAS, DIRTY_EXEC and the
// queue. It does not touch the watch list - UNWATCH is the caller's explicit
// responsibility, matching EXEC/DISCARD's documented behavior of always
// unwatching on completion.
func (s *Session) EndTx() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearFlag(FlagInTx)
	s.clearFlag(FlagDirtyCAS)
	s.clearFlag(FlagDirtyExec)
	s.queue = nil
}

// Watch records that this session watches key in db. Duplicate watches of
// the same (db, key) pair are collapsed.
func (s *Session) Watch(db int, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, wk := range s.watched {
		if wk.DB == db && wk.Key == key {
			return
		}
	}
	s.watched = append(s.watched, WatchedKey{DB: db, Key: key})
}

// Watched returns a copy of the session's current watch set.
func (s *Session) Watched() []WatchedKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WatchedKey, len(s.watched))
	copy(out, s.watched)
	return out
}

// ClearWatched empties the watch set; callers must have already unregistered
// the session from each DB's watcher index before calling this.
func (s *Session) ClearWatched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watched = nil
}
