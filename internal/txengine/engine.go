// Package txengine implements the transaction core: MULTI queues commands
// against a session, EXEC applies them atomically (the single-executor
// model makes "atomically" mean "without yielding between commands", not a
// literal database transaction), and WATCH/UNWATCH arm and disarm the
// optimistic CAS check EXEC consults before running anything at all.
package txengine

import (
	"go.uber.org/zap"

	"github.com/latticekv/lattice/internal/dataobj"
	"github.com/latticekv/lattice/internal/keyspace"
	"github.com/latticekv/lattice/internal/propagation"
	"github.com/latticekv/lattice/internal/registry"
	"github.com/latticekv/lattice/internal/session"
)

// Status classifies how EXEC concluded, letting the caller pick the right
// wire reply without re-deriving it from the result fields.
type Status int

const (
	// StatusOK means every queued command ran and Replies holds one reply
	// per command, in order.
	StatusOK Status = iota
	// StatusNullArray means a watched key was touched before EXEC: the
	// transaction did not run at all and the wire reply is a null array.
	StatusNullArray
	// StatusExecAbort means a command failed arity/lookup validation at
	// queue time: the wire reply is -EXECABORT.
	StatusExecAbort
	// StatusError means EXEC itself could not proceed for a reason other
	// than dirty CAS or a bad queued command (no MULTI open, or a
	// read-only-replica precondition failure); Err holds the reply text.
	StatusError
)

// Result is the outcome of one EXEC call.
type Result struct {
	Status  Status
	Replies [][]byte
	Err     string
}

// Engine ties the command registry, the transaction queue living on each
// session, the keyspace watch index and the propagation sink together.
type Engine struct {
	registry *registry.Registry
	dbs      *keyspace.Databases
	sink     *propagation.Sink
	log      *zap.Logger
}

func New(reg *registry.Registry, dbs *keyspace.Databases, sink *propagation.Sink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{registry: reg, dbs: dbs, sink: sink, log: log}
}

// Begin opens a transaction on s. Redis allows re-entrant MULTI (it replies
// with an error but leaves the existing queue intact); the caller is
// expected to check s.InTx() itself before calling Begin and reply
// accordingly, matching that behavior.
func (e *Engine) Begin(s *session.Session) {
	s.BeginTx()
}

// Enqueue validates and queues one command issued while s is IN_TX. It
// reports ok=true when the command was queued (the caller replies
// "+QUEUED"); when ok is false the command was rejected and recorded as a
// dirty-exec condition on s, and the caller sends an error reply instead.
func (e *Engine) Enqueue(s *session.Session, name string, args []string) (ok bool) {
	d := e.registry.Lookup(name)
	if d == nil {
		s.MarkQueueError()
		return false
	}
	if !e.registry.CheckArity(d, len(args)+1) {
		s.MarkQueueError()
		return false
	}

	// Duplicate-on-write: argv came from the connection's read buffer, which
	// is reused the instant the next pipelined command is parsed. Each
	// argument gets its own owned Object before it is copied into the
	// session's queue, so a queued command never observes a byte written by
	// whatever comes after it on the wire.
	argv := dataobj.DupArgs(args)
	s.Enqueue(name, argv.Strings())
	argv.Release()
	return true
}

// Discard abandons a transaction: the queue is dropped and every watch held
// by s is released. Err is non-empty if s had no transaction open.
func (e *Engine) Discard(s *session.Session) (errMsg string) {
	if !s.InTx() {
		return "ERR DISCARD without MULTI"
	}
	e.unwatchAll(s)
	s.EndTx()
	return ""
}

// Watch arms s as a watcher of key in the given db. Calling WATCH while
// already IN_TX is a caller-level error (checked by the dispatcher, not
// here) since Redis rejects it outright.
func (e *Engine) Watch(s *session.Session, db int, key string) {
	d := e.dbs.Get(db)
	if d == nil {
		return
	}
	d.Watch(key, s)
	s.Watch(db, key)
}

// Unwatch releases every key s currently watches, across all databases.
func (e *Engine) Unwatch(s *session.Session) {
	e.unwatchAll(s)
}

func (e *Engine) unwatchAll(s *session.Session) {
	byDB := make(map[int][]string)
	for _, wk := range s.Watched() {
		byDB[wk.DB] = append(byDB[wk.DB], wk.Key)
	}
	for dbID, keys := range byDB {
		if d := e.dbs.Get(dbID); d != nil {
			d.RemoveWatcher(s, keys)
		}
	}
	s.ClearWatched()
}

// Exec applies a queued transaction. It always ends the transaction and
// releases watches on s before returning, regardless of outcome.
func (e *Engine) Exec(s *session.Session) Result {
	defer func() {
		e.unwatchAll(s)
		s.EndTx()
	}()

	if !s.InTx() {
		return Result{Status: StatusError, Err: "ERR EXEC without MULTI"}
	}
	if s.IsDirtyExec() {
		return Result{Status: StatusExecAbort, Err: "EXECABORT Transaction discarded because of previous errors."}
	}
	if s.IsDirtyCAS() {
		return Result{Status: StatusNullArray}
	}

	queue := s.Queue()

	if s.IsReplica() {
		for _, qc := range queue {
			d := e.registry.Lookup(qc.Name)
			if d != nil && d.Flags.Has(registry.Write) {
				return Result{Status: StatusError, Err: "READONLY You can't write against a read only replica."}
			}
		}
	}

	// Release every watch before running anything: the CAS check is already
	// decided, and the transaction's own writes must not poison s.
	e.unwatchAll(s)

	db := s.CurrentDB()
	replies := make([][]byte, 0, len(queue))

	e.sink.BeginBatch()
	for _, qc := range queue {
		d := e.registry.Lookup(qc.Name)
		if d == nil {
			// Can't happen: Enqueue validated existence, but guard anyway.
			continue
		}
		reply := d.Handler(qc.Args)
		replies = append(replies, reply)

		if d.Flags.Has(registry.Write) {
			e.sink.Propagate(db, append([]string{qc.Name}, qc.Args...))
			e.dbs.AddDirty(1)
			if dbRef := e.dbs.Get(db); dbRef != nil {
				touchKeys(dbRef, qc.Name, qc.Args)
			}
		}
	}
	e.sink.EndBatch()

	return Result{Status: StatusOK, Replies: replies}
}

// touchKeys marks dirty-CAS on every watcher of the keys a write command
// just affected. It relies on WriteKeys' fixed per-command table to know
// which argv positions are keys; a command that table does not list touches
// nothing, which is right for read/admin commands but means a Write-flagged
// command missing from the table poisons no watchers.
func touchKeys(db *keyspace.DB, name string, args []string) {
	keys := WriteKeys(name, args)
	db.TouchMany(keys)
}
