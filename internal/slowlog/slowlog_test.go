package slowlog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBelowThresholdIsDropped(t *testing.T) {
	s := New(10, 1000)
	s.Observe(time.Now(), []string{"GET", "foo"}, 500, "", "")
	assert.Equal(t, 0, s.Len())
}

func TestObserveAtOrAboveThresholdIsLogged(t *testing.T) {
	s := New(10, 1000)
	s.Observe(time.Now(), []string{"GET", "foo"}, 1000, "127.0.0.1:1", "alice")
	require.Equal(t, 1, s.Len())

	entries := s.Get(-1)
	assert.Equal(t, int64(0), entries[0].ID)
	assert.Equal(t, "alice", entries[0].ClientName)
}

func TestNegativeThresholdDisablesLogging(t *testing.T) {
	s := New(10, -1)
	s.Observe(time.Now(), []string{"GET", "foo"}, 1_000_000, "", "")
	assert.Equal(t, 0, s.Len())
}

func TestCapacityEvictsOldestFromTail(t *testing.T) {
	s := New(2, 0)
	s.Observe(time.Now(), []string{"CMD1"}, 1, "", "")
	s.Observe(time.Now(), []string{"CMD2"}, 1, "", "")
	s.Observe(time.Now(), []string{"CMD3"}, 1, "", "")

	entries := s.Get(-1)
	require.Len(t, entries, 2)
	assert.Equal(t, "CMD3", entries[0].Args[0])
	assert.Equal(t, "CMD2", entries[1].Args[0])
}

func TestIDsAreMonotonicAcrossEviction(t *testing.T) {
	s := New(1, 0)
	s.Observe(time.Now(), []string{"CMD1"}, 1, "", "")
	s.Observe(time.Now(), []string{"CMD2"}, 1, "", "")

	entries := s.Get(-1)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
}

func TestArgcTruncationAddsSentinelSlot(t *testing.T) {
	args := make([]string, MaxArgc+5)
	for i := range args {
		args[i] = "x"
	}
	out := truncateArgs(args)

	require.Len(t, out, MaxArgc)
	assert.Equal(t, "... (6 more arguments)", out[MaxArgc-1])
}

func TestStringTruncationAddsByteSuffix(t *testing.T) {
	long := strings.Repeat("a", MaxString+10)
	out := truncateString(long)

	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", MaxString)))
	assert.Contains(t, out, "... (10 more bytes)")
}

func TestShortStringUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateString("short"))
}

func TestResetClearsEntriesKeepsIDCounter(t *testing.T) {
	s := New(10, 0)
	s.Observe(time.Now(), []string{"CMD1"}, 1, "", "")
	s.Reset()
	assert.Equal(t, 0, s.Len())

	s.Observe(time.Now(), []string{"CMD2"}, 1, "", "")
	entries := s.Get(-1)
	assert.Equal(t, int64(1), entries[0].ID)
}

func TestZeroCapacityNeverLogs(t *testing.T) {
	s := New(0, 0)
	s.Observe(time.Now(), []string{"CMD1"}, 1, "", "")
	assert.Equal(t, 0, s.Len())
}
