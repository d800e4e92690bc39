// Package dataobj implements the reference-counted value carrier used when a
// command's arguments must outlive the buffer they were parsed from: the
// transaction engine duplicates a queued command's argv into Objects, and
// the dispatcher retains its own copy for the slow log. It mirrors the
// server's object model: a small tagged wrapper around a type-specific
// payload, with a refcount that callers must retain/release explicitly.
package dataobj

import "sync/atomic"

// Type tags the kind of payload an Object carries.
type Type int

const (
	String Type = iota
	List
	Set
	Hash
	SortedSet
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case List:
		return "list"
	case Set:
		return "set"
	case Hash:
		return "hash"
	case SortedSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Encoding is a representation hint for the object's payload, used only for
// introspection (OBJECT ENCODING-style reporting); it never changes behavior.
type Encoding int

const (
	EncodingRaw Encoding = iota
	EncodingInt
	EncodingEmbstr
)

// sharedRefcount marks an object as a shared singleton: Retain/Release become
// no-ops so common replies (small integers, empty replies) never hit zero.
const sharedRefcount = -1

// Object is the tagged, reference-counted value carrier. Every live Object
// must have refcount >= 1; when Release drives it to zero the payload is
// considered released (the caller stops using it - Go's GC reclaims the
// memory, the refcount only enforces the observable lifecycle invariant).
type Object struct {
	typ      Type
	encoding Encoding
	lruStamp int64
	refcount int32
	payload  interface{}
}

// New creates an object with refcount 1.
func New(typ Type, encoding Encoding, payload interface{}) *Object {
	return &Object{
		typ:      typ,
		encoding: encoding,
		refcount: 1,
		payload:  payload,
	}
}

// NewShared creates a singleton object whose refcount never changes.
func NewShared(typ Type, encoding Encoding, payload interface{}) *Object {
	return &Object{
		typ:      typ,
		encoding: encoding,
		refcount: sharedRefcount,
		payload:  payload,
	}
}

func (o *Object) Type() Type           { return o.typ }
func (o *Object) Encoding() Encoding    { return o.encoding }
func (o *Object) Payload() interface{} { return o.payload }
func (o *Object) LRUStamp() int64      { return atomic.LoadInt64(&o.lruStamp) }
func (o *Object) Touch(clock int64)    { atomic.StoreInt64(&o.lruStamp, clock) }

// IsShared reports whether this object uses the sentinel refcount.
func (o *Object) IsShared() bool {
	return atomic.LoadInt32(&o.refcount) == sharedRefcount
}

// RefCount returns the current refcount (undefined ordering under concurrent
// mutation, intended for tests and introspection commands only).
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refcount)
}

// Retain increments the refcount. Shared singletons ignore it.
func (o *Object) Retain() *Object {
	if o.IsShared() {
		return o
	}
	atomic.AddInt32(&o.refcount, 1)
	return o
}

// Release decrements the refcount and reports whether the object just
// reached zero (the caller must treat the payload as released and never
// touch it again). Shared singletons never reach zero.
func (o *Object) Release() bool {
	if o.IsShared() {
		return false
	}
	n := atomic.AddInt32(&o.refcount, -1)
	if n < 0 {
		panic("dataobj: refcount dropped below zero")
	}
	return n == 0
}

// Dup duplicates the string payload into a fresh Object with refcount 1,
// defeating any in-place mutation or async-release race on the original.
// ArgVector calls this once per argument when the transaction engine queues
// a command and when the dispatcher retains one for the slow log.
func Dup(s string) *Object {
	cp := string(append([]byte(nil), s...))
	return New(String, EncodingRaw, cp)
}
