package dataobj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectStartsAtRefcountOne(t *testing.T) {
	o := New(String, EncodingRaw, "hello")
	assert.EqualValues(t, 1, o.RefCount())
	assert.Equal(t, String, o.Type())
	assert.Equal(t, "hello", o.Payload())
}

func TestRetainReleaseRoundTrip(t *testing.T) {
	o := New(String, EncodingRaw, "hello")
	o.Retain()
	assert.EqualValues(t, 2, o.RefCount())

	assert.False(t, o.Release())
	assert.EqualValues(t, 1, o.RefCount())

	assert.True(t, o.Release())
	assert.EqualValues(t, 0, o.RefCount())
}

func TestReleaseBelowZeroPanics(t *testing.T) {
	o := New(String, EncodingRaw, "x")
	o.Release()
	assert.Panics(t, func() { o.Release() })
}

func TestSharedObjectIgnoresRetainRelease(t *testing.T) {
	o := NewShared(String, EncodingRaw, "OK")
	assert.True(t, o.IsShared())

	o.Retain()
	assert.False(t, o.Release())
	assert.False(t, o.Release())
	assert.True(t, o.IsShared())
}

func TestDupCopiesPayloadIndependently(t *testing.T) {
	s := "original"
	o := Dup(s)
	require.Equal(t, "original", o.Payload())

	// Mutating the byte backing of s must not reach into o's payload - Dup
	// copies the bytes, it doesn't alias the string header.
	b := []byte(s)
	b[0] = 'X'
	assert.Equal(t, "original", o.Payload())
}

func TestTouchUpdatesLRUStamp(t *testing.T) {
	o := New(String, EncodingRaw, "v")
	assert.EqualValues(t, 0, o.LRUStamp())
	o.Touch(42)
	assert.EqualValues(t, 42, o.LRUStamp())
}

func TestArgVectorDupsEachArgumentIndependently(t *testing.T) {
	args := []string{"key", "value"}
	v := DupArgs(args)
	require.Equal(t, 2, v.Len())

	args[0] = "mutated"
	assert.Equal(t, []string{"key", "value"}, v.Strings())
}

func TestArgVectorRetainReleaseRoundTrip(t *testing.T) {
	v := DupArgs([]string{"a", "b"})
	v.Retain()

	// One Release per Retain/DupArgs call: two holds, two releases, no panic.
	v.Release()
	v.Release()
}

func TestArgVectorReleaseWithoutRetainDropsToZero(t *testing.T) {
	v := DupArgs([]string{"a"})
	v.Release()
	assert.Panics(t, func() { v.Release() })
}
