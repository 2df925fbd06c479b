package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobsh/bob/internal/script/interp"
	"github.com/bobsh/bob/internal/script/parser"
	"github.com/bobsh/bob/internal/script/value"
)

func run(t *testing.T, src string) *interp.Interp {
	t.Helper()
	prog, errs := parser.Parse([]byte(src))
	require.Empty(t, errs, "parse errors: %v", errs)

	in := interp.New(interp.NopHost{})
	require.NoError(t, in.Run(prog))
	return in
}

func TestVarDeclAndLookup(t *testing.T) {
	in := run(t, `var x = 41 + 1`)

	v, ok := in.Env.Find("x")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)
}

func TestIfElifElse(t *testing.T) {
	in := run(t, `
var x = 2
var result = "none"
if x == 1 {
	result = "one"
} elif x == 2 {
	result = "two"
} else {
	result = "other"
}
`)

	v, ok := in.Env.Find("result")
	require.True(t, ok)
	assert.Equal(t, "two", v.Str)
}

func TestForOverVectorAccumulates(t *testing.T) {
	in := run(t, `
var total = 0
for n in [1, 2, 3, 4] {
	total = total + n
}
`)

	v, ok := in.Env.Find("total")
	require.True(t, ok)
	assert.Equal(t, int64(10), v.Int)
}

func TestForBreakAndContinue(t *testing.T) {
	in := run(t, `
var seen = []
for n in [1, 2, 3, 4, 5] {
	if n == 2 {
		continue
	}
	if n == 4 {
		break
	}
	seen = seen + [n]
}
`)

	v, ok := in.Env.Find("seen")
	require.True(t, ok)
	require.Len(t, v.Vec, 2)
	assert.Equal(t, int64(1), v.Vec[0].Int)
	assert.Equal(t, int64(3), v.Vec[1].Int)
}

func TestFunctionCallAndReturn(t *testing.T) {
	in := run(t, `
fn add(a, b) {
	return a + b
}
var x = add(3, 4)
`)

	v, ok := in.Env.Find("x")
	require.True(t, ok)
	assert.Equal(t, int64(7), v.Int)
}

func TestAssertFailureReturnsError(t *testing.T) {
	prog, errs := parser.Parse([]byte(`assert 1 == 2, "one is not two"`))
	require.Empty(t, errs)

	in := interp.New(interp.NopHost{})
	err := in.Run(prog)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion test '1 == 2' failed: one is not two")
}

func TestUndeclaredExternIsAnError(t *testing.T) {
	prog, errs := parser.Parse([]byte(`extern Cc`))
	require.Empty(t, errs)

	in := interp.New(interp.NopHost{})
	err := in.Run(prog)

	require.Error(t, err)
}

func TestClassDeclarationBindsClassValue(t *testing.T) {
	in := run(t, `
class Counter {
	var count = 0
	fn bump() {
		count = count + 1
	}
}
`)

	v, ok := in.Env.Find("Counter")
	require.True(t, ok)
	assert.Equal(t, value.KindFn, v.Kind)
	assert.Equal(t, "Counter", v.Fn.Name)
}
