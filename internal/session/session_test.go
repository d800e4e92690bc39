package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionBeginTxResetsState(t *testing.T) {
	s := New(1, "127.0.0.1:1234")
	s.Enqueue("GET", []string{"foo"})
	s.MarkDirtyCAS()

	s.BeginTx()

	assert.True(t, s.InTx())
	assert.False(t, s.IsDirtyCAS())
	assert.Equal(t, 0, s.QueueLen())
}

func TestSessionEnqueueCopiesArgs(t *testing.T) {
	s := New(1, "")
	s.BeginTx()
	args := []string{"foo", "bar"}
	s.Enqueue("SET", args)

	args[0] = "mutated"

	queue := s.Queue()
	assert.Equal(t, "foo", queue[0].Args[0])
}

func TestSessionEndTxClearsFlagsButNotWatch(t *testing.T) {
	s := New(1, "")
	s.BeginTx()
	s.Enqueue("GET", []string{"foo"})
	s.Watch(0, "foo")
	s.MarkDirtyCAS()

	s.EndTx()

	assert.False(t, s.InTx())
	assert.False(t, s.IsDirtyCAS())
	assert.Equal(t, 0, s.QueueLen())
	assert.Len(t, s.Watched(), 1)
}

func TestSessionWatchDeduplicates(t *testing.T) {
	s := New(1, "")
	s.Watch(0, "foo")
	s.Watch(0, "foo")
	s.Watch(1, "foo")

	assert.Len(t, s.Watched(), 2)
}

func TestSessionMarkQueueErrorSetsDirtyExec(t *testing.T) {
	s := New(1, "")
	s.BeginTx()
	s.MarkQueueError()
	assert.True(t, s.IsDirtyExec())
}

func TestSessionRoleFlags(t *testing.T) {
	s := New(1, "")
	assert.False(t, s.IsReplica())
	s.SetReplica(true)
	assert.True(t, s.IsReplica())
	s.SetReplica(false)
	assert.False(t, s.IsReplica())
}
