// Package dispatcher implements the single entry point every parsed command
// passes through: arity and existence validation, MULTI-queue routing,
// synchronous execution, and the post-execution bookkeeping (slowlog,
// propagation, monitor feed) that every successful command triggers exactly
// once, in the same order, regardless of which command it was.
package dispatcher

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/latticekv/lattice/internal/dataobj"
	"github.com/latticekv/lattice/internal/keyspace"
	"github.com/latticekv/lattice/internal/propagation"
	"github.com/latticekv/lattice/internal/protocol"
	"github.com/latticekv/lattice/internal/registry"
	"github.com/latticekv/lattice/internal/session"
	"github.com/latticekv/lattice/internal/slowlog"
	"github.com/latticekv/lattice/internal/txengine"
)

// Dispatcher wires the command registry, the transaction engine, the
// slowlog and the propagation sink behind one Dispatch call.
type Dispatcher struct {
	registry *registry.Registry
	tx       *txengine.Engine
	dbs      *keyspace.Databases
	sink     *propagation.Sink
	slow     *slowlog.SlowLog
	log      *zap.Logger
}

func New(reg *registry.Registry, tx *txengine.Engine, dbs *keyspace.Databases, sink *propagation.Sink, slow *slowlog.SlowLog, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{registry: reg, tx: tx, dbs: dbs, sink: sink, slow: slow, log: log}
}

// Dispatch routes and executes one command issued by s. argv[0] is the
// command name; it is stripped before the remaining arguments are passed to
// handlers (registry.HandlerFunc receives only the arguments).
func (d *Dispatcher) Dispatch(s *session.Session, argv []string) []byte {
	if len(argv) == 0 {
		return protocol.EncodeError("ERR empty command")
	}
	name := strings.ToUpper(argv[0])
	args := argv[1:]

	switch name {
	case "MULTI":
		return d.handleMulti(s)
	case "EXEC":
		return d.handleExec(s)
	case "DISCARD":
		return d.handleDiscard(s)
	case "WATCH":
		return d.handleWatch(s, args)
	case "UNWATCH":
		return d.handleUnwatch(s)
	}

	desc := d.registry.Lookup(name)
	if desc == nil {
		if s.InTx() {
			s.MarkQueueError()
		}
		d.log.Debug("unknown command", zap.String("command", name), zap.Int64("session", s.SessionID()))
		return protocol.EncodeError("ERR unknown command '" + argv[0] + "'")
	}
	if !d.registry.CheckArity(desc, len(argv)) {
		if s.InTx() {
			s.MarkQueueError()
		}
		d.log.Debug("wrong number of arguments", zap.String("command", name), zap.Int("argc", len(argv)))
		return protocol.EncodeError("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
	}

	if s.InTx() {
		d.tx.Enqueue(s, name, args)
		return protocol.EncodeSimpleString("QUEUED")
	}

	return d.execute(s, desc, name, args)
}

// execute runs one command outside a transaction: it is the non-batched
// counterpart to txengine.Engine.Exec's per-command loop, and applies the
// same role check and propagation rules. It additionally offers the command
// to the slow log, which the Exec loop does not do for queued commands.
func (d *Dispatcher) execute(s *session.Session, desc *registry.Descriptor, name string, args []string) []byte {
	if desc.Flags.Has(registry.Write) && s.IsReplica() {
		d.log.Warn("rejected write against replica", zap.String("command", name))
		return protocol.EncodeError("READONLY You can't write against a read only replica.")
	}

	start := time.Now()
	reply := desc.Handler(args)
	durationUs := time.Since(start).Microseconds()

	if d.slow != nil {
		// The slow log outlives this call (it is read back by SLOWLOG GET
		// long after the connection that issued the command moved on), so
		// it gets its own retained copy of the argument vector rather than
		// a reference into the caller's slice.
		argv := dataobj.DupArgs(append([]string{name}, args...)).Retain()
		d.slow.Observe(start, argv.Strings(), durationUs, s.PeerAddr(), s.Name())
		argv.Release()
	}

	if desc.Flags.Has(registry.Write) {
		db := s.CurrentDB()
		d.sink.Propagate(db, append([]string{name}, args...))
		d.dbs.AddDirty(1)
		if dbRef := d.dbs.Get(db); dbRef != nil {
			dbRef.TouchMany(txengine.WriteKeys(name, args))
		}
	}

	return reply
}

func (d *Dispatcher) handleMulti(s *session.Session) []byte {
	if s.InTx() {
		return protocol.EncodeError("ERR MULTI calls can not be nested")
	}
	d.tx.Begin(s)
	return protocol.EncodeSimpleString("OK")
}

func (d *Dispatcher) handleDiscard(s *session.Session) []byte {
	if errMsg := d.tx.Discard(s); errMsg != "" {
		return protocol.EncodeError(errMsg)
	}
	return protocol.EncodeSimpleString("OK")
}

func (d *Dispatcher) handleWatch(s *session.Session, keys []string) []byte {
	if s.InTx() {
		return protocol.EncodeError("ERR WATCH inside MULTI is not allowed")
	}
	if len(keys) == 0 {
		return protocol.EncodeError("ERR wrong number of arguments for 'watch' command")
	}
	db := s.CurrentDB()
	for _, key := range keys {
		d.tx.Watch(s, db, key)
	}
	return protocol.EncodeSimpleString("OK")
}

func (d *Dispatcher) handleUnwatch(s *session.Session) []byte {
	d.tx.Unwatch(s)
	return protocol.EncodeSimpleString("OK")
}

func (d *Dispatcher) handleExec(s *session.Session) []byte {
	result := d.tx.Exec(s)
	switch result.Status {
	case txengine.StatusError, txengine.StatusExecAbort:
		return protocol.EncodeError(result.Err)
	case txengine.StatusNullArray:
		return protocol.EncodeNilArray()
	default:
		return protocol.EncodeRawArray(result.Replies)
	}
}
