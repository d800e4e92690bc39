package dataobj

// ArgVector holds one command's argument strings as individually
// duplicate-on-write Objects. Queueing a command inside MULTI (and logging
// one to the slow log) must not keep a reference into the connection's read
// buffer, which is reused for the next pipelined command the moment this one
// is parsed - ArgVector is the mechanism that copies each argument out from
// under that buffer and gives it its own refcounted lifetime.
type ArgVector struct {
	objects []*Object
}

// DupArgs duplicates every string in args into its own Object with refcount
// 1. This is the enqueue-time duplication: each argument becomes an owned
// object rather than a slice alias into whatever produced args.
func DupArgs(args []string) *ArgVector {
	objects := make([]*Object, len(args))
	for i, a := range args {
		objects[i] = Dup(a)
	}
	return &ArgVector{objects: objects}
}

// Retain increments every argument's refcount, for a second, independent
// holder of the same vector (e.g. the slow log retaining a copy of a
// transaction's queued arguments after the engine has already released its
// own hold).
func (v *ArgVector) Retain() *ArgVector {
	for _, o := range v.objects {
		o.Retain()
	}
	return v
}

// Release decrements every argument's refcount. Calling it more times than
// the vector was retained panics via the underlying Object, the same
// invariant violation it would be on a single Object.
func (v *ArgVector) Release() {
	for _, o := range v.objects {
		o.Release()
	}
}

// Strings materializes the vector's current payloads back into a plain
// []string, the form the registry's HandlerFunc and the wire encoder expect.
func (v *ArgVector) Strings() []string {
	out := make([]string, len(v.objects))
	for i, o := range v.objects {
		out[i], _ = o.Payload().(string)
	}
	return out
}

// Len returns the number of arguments in the vector.
func (v *ArgVector) Len() int { return len(v.objects) }
