// Package propagation implements PropagationSink: the single ordered path by
// which successfully applied write commands reach the AOF writer, the
// replication backlog and any attached MONITOR clients. Ordering here is the
// whole point - every writer observes commands in exactly the order the
// dispatcher applied them, with MULTI/EXEC brackets around batched writes and
// a SELECT frame whenever the target database changes.
package propagation

import (
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// AOFWriter is the subset of aof.Writer that propagation depends on.
type AOFWriter interface {
	WriteCommand(args []string) error
}

// Replicator is the subset of replication.ReplicationManager that
// propagation depends on.
type Replicator interface {
	PropagateCommand(args []string)
}

// Monitor receives a copy of every propagated command for MONITOR clients.
type Monitor interface {
	Feed(db int, args []string)
}

// Sink fans a single ordered stream of write commands out to AOF, replicas
// and monitors. It is safe for concurrent use, but since the core's executor
// is single-threaded in practice, the lock mainly protects the lazy-MULTI
// batch state from concurrent SLOWLOG/INFO readers.
type Sink struct {
	mu       sync.Mutex
	aof      AOFWriter
	repl     Replicator
	monitor  Monitor
	log      *zap.Logger
	lastDB   int
	haveDB   bool
	inBatch  bool
	wroteAny bool
}

// Option configures a Sink at construction time.
type Option func(*Sink)

func WithAOF(w AOFWriter) Option        { return func(s *Sink) { s.aof = w } }
func WithReplicator(r Replicator) Option { return func(s *Sink) { s.repl = r } }
func WithMonitor(m Monitor) Option       { return func(s *Sink) { s.monitor = m } }
func WithLogger(l *zap.Logger) Option    { return func(s *Sink) { s.log = l } }

func New(opts ...Option) *Sink {
	s := &Sink{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginBatch opens a propagation batch (one EXEC's worth of queued writes).
// Call EndBatch exactly once for every BeginBatch, even if zero commands end
// up propagated - EndBatch is a no-op in that case.
func (s *Sink) BeginBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inBatch = true
	s.wroteAny = false
}

// EndBatch closes a batch opened with BeginBatch, emitting the terminating
// EXEC frame if (and only if) at least one write was propagated during it.
func (s *Sink) EndBatch() {
	s.mu.Lock()
	wroteAny := s.wroteAny
	s.inBatch = false
	s.wroteAny = false
	s.mu.Unlock()

	if wroteAny {
		s.emit(0, []string{"EXEC"}, false)
	}
}

// Propagate records one applied write command against db. Outside a batch it
// is emitted immediately (with a SELECT frame if db changed since the last
// propagated command). Inside a batch, the first call lazily emits a
// synthetic MULTI (after any SELECT frame the db change calls for) before the
// command itself.
func (s *Sink) Propagate(db int, args []string) {
	s.mu.Lock()
	needMulti := s.inBatch && !s.wroteAny
	if s.inBatch {
		s.wroteAny = true
	}
	s.mu.Unlock()

	if needMulti {
		s.emit(db, []string{"MULTI"}, true)
	}
	s.emit(db, args, true)
}

// emit writes one frame downstream, prefixing a SELECT frame whenever db
// differs from the last db this sink propagated to. selectCounts controls
// whether the SELECT check applies to this frame: the synthetic MULTI passes
// true, so a needed SELECT lands before it rather than inside the batch; the
// terminating EXEC passes false, since it uses db 0 as a sentinel and must
// never trigger a spurious SELECT.
func (s *Sink) emit(db int, args []string, selectCounts bool) {
	s.mu.Lock()
	needSelect := selectCounts && (!s.haveDB || s.lastDB != db)
	if selectCounts {
		s.lastDB = db
		s.haveDB = true
	}
	s.mu.Unlock()

	if needSelect {
		s.write(db, []string{"SELECT", strconv.Itoa(db)})
	}
	s.write(db, args)
}

func (s *Sink) write(db int, args []string) {
	if s.aof != nil {
		if err := s.aof.WriteCommand(args); err != nil {
			s.log.Warn("aof propagation failed", zap.Strings("args", args), zap.Error(err))
		}
	}
	if s.repl != nil {
		s.repl.PropagateCommand(args)
	}
	if s.monitor != nil {
		s.monitor.Feed(db, args)
	}
}

// TerminateBatch force-closes any open batch, emitting the terminating EXEC
// if a write was propagated during it, so AOF/replica consumers never observe
// an unbalanced MULTI. It is the same operation as EndBatch; nothing in this
// module calls it (txengine.Engine.Exec closes its batch with EndBatch and
// does not react to a role change mid-EXEC).
func (s *Sink) TerminateBatch() {
	s.EndBatch()
}
