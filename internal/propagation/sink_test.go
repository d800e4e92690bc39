package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAOF struct{ written [][]string }

func (f *fakeAOF) WriteCommand(args []string) error {
	f.written = append(f.written, args)
	return nil
}

type fakeRepl struct{ written [][]string }

func (f *fakeRepl) PropagateCommand(args []string) {
	f.written = append(f.written, args)
}

func TestPropagateSingleAddsSelectOnFirstWrite(t *testing.T) {
	aof := &fakeAOF{}
	s := New(WithAOF(aof))

	s.Propagate(2, []string{"SET", "foo", "bar"})

	require.Len(t, aof.written, 2)
	assert.Equal(t, []string{"SELECT", "2"}, aof.written[0])
	assert.Equal(t, []string{"SET", "foo", "bar"}, aof.written[1])
}

func TestPropagateSelectOnlyEmittedOnDBChange(t *testing.T) {
	aof := &fakeAOF{}
	s := New(WithAOF(aof))

	s.Propagate(0, []string{"SET", "a", "1"})
	s.Propagate(0, []string{"SET", "b", "2"})

	require.Len(t, aof.written, 3)
	assert.Equal(t, []string{"SELECT", "0"}, aof.written[0])
	assert.Equal(t, []string{"SET", "a", "1"}, aof.written[1])
	assert.Equal(t, []string{"SET", "b", "2"}, aof.written[2])
}

func TestBatchWrapsWritesInMultiExec(t *testing.T) {
	aof := &fakeAOF{}
	s := New(WithAOF(aof))

	s.BeginBatch()
	s.Propagate(0, []string{"SET", "a", "1"})
	s.Propagate(0, []string{"SET", "b", "2"})
	s.EndBatch()

	require.Len(t, aof.written, 5)
	assert.Equal(t, []string{"SELECT", "0"}, aof.written[0])
	assert.Equal(t, []string{"MULTI"}, aof.written[1])
	assert.Equal(t, []string{"SET", "a", "1"}, aof.written[2])
	assert.Equal(t, []string{"SET", "b", "2"}, aof.written[3])
	assert.Equal(t, []string{"EXEC"}, aof.written[4])
}

func TestEmptyBatchEmitsNothing(t *testing.T) {
	aof := &fakeAOF{}
	s := New(WithAOF(aof))

	s.BeginBatch()
	s.EndBatch()

	assert.Empty(t, aof.written)
}

func TestPropagateFansOutToAOFAndReplicator(t *testing.T) {
	aof := &fakeAOF{}
	repl := &fakeRepl{}
	s := New(WithAOF(aof), WithReplicator(repl))

	s.Propagate(0, []string{"SET", "a", "1"})

	assert.Len(t, aof.written, 2)
	assert.Len(t, repl.written, 2)
}

func TestMonitorHubFeedsAttachedWatchers(t *testing.T) {
	hub := NewMonitorHub()
	feed := hub.Attach(1)

	hub.Feed(0, []string{"SET", "foo", "bar"})

	line := <-feed.Lines
	assert.Contains(t, line, "SET")
	assert.Contains(t, line, "foo")
}

func TestMonitorHubDetachClosesChannel(t *testing.T) {
	hub := NewMonitorHub()
	feed := hub.Attach(1)
	hub.Detach(1)

	_, ok := <-feed.Lines
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
}
