package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(args []string) []byte { return []byte(args[0]) }

func TestLookupCaseInsensitive(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "GET", Handler: echoHandler, Arity: 2, Flags: ReadOnly | Fast})

	d := r.Lookup("get")
	require.NotNil(t, d)
	assert.Equal(t, "GET", d.Name)

	d2 := r.Lookup("GeT")
	require.NotNil(t, d2)
}

func TestLookupUnknownCommand(t *testing.T) {
	r := New()
	assert.Nil(t, r.Lookup("bogus"))
}

func TestArityExactMatch(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "GET", Handler: echoHandler, Arity: 2, Flags: ReadOnly})
	d := r.Lookup("get")

	assert.True(t, r.CheckArity(d, 2))
	assert.False(t, r.CheckArity(d, 1))
	assert.False(t, r.CheckArity(d, 3))
}

func TestArityMinimumMatch(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "MSET", Handler: echoHandler, Arity: -3, Flags: Write})
	d := r.Lookup("mset")

	assert.False(t, r.CheckArity(d, 2))
	assert.True(t, r.CheckArity(d, 3))
	assert.True(t, r.CheckArity(d, 5))
}

func TestFlagHas(t *testing.T) {
	f := ReadOnly | Fast
	assert.True(t, f.Has(ReadOnly))
	assert.True(t, f.Has(Fast))
	assert.False(t, f.Has(Write))
}
