package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekv/lattice/internal/keyspace"
	"github.com/latticekv/lattice/internal/propagation"
	"github.com/latticekv/lattice/internal/protocol"
	"github.com/latticekv/lattice/internal/registry"
	"github.com/latticekv/lattice/internal/session"
	"github.com/latticekv/lattice/internal/slowlog"
	"github.com/latticekv/lattice/internal/txengine"
)

func newTestDispatcher() (*Dispatcher, *keyspace.Databases, *propagation.Sink) {
	reg := registry.New()
	reg.Register(registry.Descriptor{
		Name:    "GET",
		Handler: func(args []string) []byte { return protocol.EncodeBulkString("bar") },
		Arity:   2,
		Flags:   registry.ReadOnly,
	})
	reg.Register(registry.Descriptor{
		Name:    "SET",
		Handler: func(args []string) []byte { return protocol.EncodeSimpleString("OK") },
		Arity:   3,
		Flags:   registry.Write,
	})
	dbs := keyspace.NewDatabases(1)
	sink := propagation.New()
	sl := slowlog.New(16, 0)
	tx := txengine.New(reg, dbs, sink, nil)
	return New(reg, tx, dbs, sink, sl, nil), dbs, sink
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")

	reply := d.Dispatch(s, []string{"NOPE"})

	assert.Contains(t, string(reply), "unknown command")
}

func TestDispatchBadArity(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")

	reply := d.Dispatch(s, []string{"GET"})

	assert.Contains(t, string(reply), "wrong number of arguments")
}

func TestDispatchSimpleReadCommand(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")

	reply := d.Dispatch(s, []string{"GET", "foo"})

	assert.Equal(t, protocol.EncodeBulkString("bar"), reply)
}

func TestDispatchWriteCommandBumpsDirty(t *testing.T) {
	d, dbs, _ := newTestDispatcher()
	s := session.New(1, "")

	d.Dispatch(s, []string{"SET", "foo", "bar"})

	assert.EqualValues(t, 1, dbs.Dirty())
}

func TestDispatchReadOnlyReplicaRejectsWrite(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")
	s.SetReplica(true)

	reply := d.Dispatch(s, []string{"SET", "foo", "bar"})

	assert.Contains(t, string(reply), "READONLY")
}

func TestMultiQueuesCommands(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")

	assert.Equal(t, protocol.EncodeSimpleString("OK"), d.Dispatch(s, []string{"MULTI"}))
	reply := d.Dispatch(s, []string{"SET", "foo", "bar"})
	assert.Equal(t, protocol.EncodeSimpleString("QUEUED"), reply)
	assert.Equal(t, 1, s.QueueLen())
}

func TestMultiNestedRejected(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")
	d.Dispatch(s, []string{"MULTI"})

	reply := d.Dispatch(s, []string{"MULTI"})

	assert.Contains(t, string(reply), "nested")
}

func TestExecRunsQueuedCommands(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")
	d.Dispatch(s, []string{"MULTI"})
	d.Dispatch(s, []string{"SET", "foo", "bar"})
	d.Dispatch(s, []string{"GET", "foo"})

	reply := d.Dispatch(s, []string{"EXEC"})

	expected := protocol.EncodeRawArray([][]byte{
		protocol.EncodeSimpleString("OK"),
		protocol.EncodeBulkString("bar"),
	})
	assert.Equal(t, expected, reply)
}

func TestExecAbortsOnBadQueuedCommand(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")
	d.Dispatch(s, []string{"MULTI"})
	d.Dispatch(s, []string{"NOPE"})

	reply := d.Dispatch(s, []string{"EXEC"})

	assert.Contains(t, string(reply), "EXECABORT")
}

func TestWatchThenExternalTouchAbortsWithNullArray(t *testing.T) {
	d, dbs, _ := newTestDispatcher()
	s := session.New(1, "")

	reply := d.Dispatch(s, []string{"WATCH", "foo"})
	require.Equal(t, protocol.EncodeSimpleString("OK"), reply)

	dbs.Get(0).Touch("foo")

	d.Dispatch(s, []string{"MULTI"})
	d.Dispatch(s, []string{"GET", "foo"})
	reply = d.Dispatch(s, []string{"EXEC"})

	assert.Equal(t, protocol.EncodeNilArray(), reply)
}

func TestWatchInsideMultiRejected(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")
	d.Dispatch(s, []string{"MULTI"})

	reply := d.Dispatch(s, []string{"WATCH", "foo"})

	assert.Contains(t, string(reply), "not allowed")
}

func TestUnwatchClearsWatchSet(t *testing.T) {
	d, dbs, _ := newTestDispatcher()
	s := session.New(1, "")
	d.Dispatch(s, []string{"WATCH", "foo"})

	d.Dispatch(s, []string{"UNWATCH"})

	assert.False(t, dbs.Get(0).HasWatchers("foo"))
}

func TestDiscardWithoutMultiErrors(t *testing.T) {
	d, _, _ := newTestDispatcher()
	s := session.New(1, "")

	reply := d.Dispatch(s, []string{"DISCARD"})

	assert.Contains(t, string(reply), "without MULTI")
}
