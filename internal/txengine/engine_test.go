package txengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekv/lattice/internal/keyspace"
	"github.com/latticekv/lattice/internal/propagation"
	"github.com/latticekv/lattice/internal/registry"
	"github.com/latticekv/lattice/internal/session"
)

func newTestEngine() (*Engine, *registry.Registry, *keyspace.Databases) {
	reg := registry.New()
	reg.Register(registry.Descriptor{
		Name:    "GET",
		Handler: func(args []string) []byte { return []byte("$3\r\nbar\r\n") },
		Arity:   2,
		Flags:   registry.ReadOnly,
	})
	reg.Register(registry.Descriptor{
		Name:    "SET",
		Handler: func(args []string) []byte { return []byte("+OK\r\n") },
		Arity:   3,
		Flags:   registry.Write,
	})
	dbs := keyspace.NewDatabases(2)
	sink := propagation.New()
	return New(reg, dbs, sink, nil), reg, dbs
}

func TestEnqueueRejectsUnknownCommand(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")
	e.Begin(s)

	ok := e.Enqueue(s, "BOGUS", nil)

	assert.False(t, ok)
	assert.True(t, s.IsDirtyExec())
}

func TestEnqueueRejectsBadArity(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")
	e.Begin(s)

	ok := e.Enqueue(s, "GET", []string{})

	assert.False(t, ok)
	assert.True(t, s.IsDirtyExec())
}

func TestExecReturnsExecAbortOnDirtyExec(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")
	e.Begin(s)
	e.Enqueue(s, "BOGUS", nil)

	result := e.Exec(s)

	assert.Equal(t, StatusExecAbort, result.Status)
	assert.False(t, s.InTx())
}

func TestExecReturnsNullOnDirtyCAS(t *testing.T) {
	e, _, dbs := newTestEngine()
	s := session.New(1, "")
	e.Watch(s, 0, "foo")
	e.Begin(s)
	e.Enqueue(s, "GET", []string{"foo"})

	dbs.Get(0).Touch("foo")

	result := e.Exec(s)

	assert.Equal(t, StatusNullArray, result.Status)
}

func TestExecAppliesQueuedCommandsInOrder(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")
	e.Begin(s)
	require.True(t, e.Enqueue(s, "SET", []string{"foo", "bar"}))
	require.True(t, e.Enqueue(s, "GET", []string{"foo"}))

	result := e.Exec(s)

	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Replies, 2)
	assert.Equal(t, []byte("+OK\r\n"), result.Replies[0])
}

func TestExecBumpsGlobalDirtyCounterOnWrites(t *testing.T) {
	e, _, dbs := newTestEngine()
	s := session.New(1, "")
	e.Begin(s)
	e.Enqueue(s, "SET", []string{"foo", "bar"})

	e.Exec(s)

	assert.EqualValues(t, 1, dbs.Dirty())
}

func TestExecUnwatchesEvenOnAbort(t *testing.T) {
	e, _, dbs := newTestEngine()
	s := session.New(1, "")
	e.Watch(s, 0, "foo")
	e.Begin(s)
	e.Enqueue(s, "BOGUS", nil)

	e.Exec(s)

	assert.Empty(t, s.Watched())
	assert.False(t, dbs.Get(0).HasWatchers("foo"))
}

func TestExecWithoutMultiReturnsError(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")

	result := e.Exec(s)

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Err, "without MULTI")
}

func TestDiscardWithoutMultiReturnsError(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")

	errMsg := e.Discard(s)

	assert.Contains(t, errMsg, "without MULTI")
}

func TestDiscardClearsQueueAndWatches(t *testing.T) {
	e, _, dbs := newTestEngine()
	s := session.New(1, "")
	e.Watch(s, 0, "foo")
	e.Begin(s)
	e.Enqueue(s, "GET", []string{"foo"})

	errMsg := e.Discard(s)

	assert.Empty(t, errMsg)
	assert.False(t, s.InTx())
	assert.False(t, dbs.Get(0).HasWatchers("foo"))
}

func TestReplicaRejectsWriteCommandInTx(t *testing.T) {
	e, _, _ := newTestEngine()
	s := session.New(1, "")
	s.SetReplica(true)
	e.Begin(s)
	e.Enqueue(s, "SET", []string{"foo", "bar"})

	result := e.Exec(s)

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Err, "READONLY")
}

func TestWriteKeysCoversCoreWriteCommands(t *testing.T) {
	assert.Equal(t, []string{"foo"}, WriteKeys("SET", []string{"foo", "bar"}))
	assert.Equal(t, []string{"a", "b"}, WriteKeys("MSET", []string{"a", "1", "b", "2"}))
	assert.Nil(t, WriteKeys("FLUSHALL", []string{}))
}
