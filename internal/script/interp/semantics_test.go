package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobsh/bob/internal/script/interp"
	"github.com/bobsh/bob/internal/script/parser"
	"github.com/bobsh/bob/internal/script/value"
)

func runErr(t *testing.T, src string) error {
	t.Helper()
	prog, errs := parser.Parse([]byte(src))
	require.Empty(t, errs, "parse errors: %v", errs)
	return interp.New(interp.NopHost{}).Run(prog)
}

func TestClosureCapturesDefiningScope(t *testing.T) {
	in := run(t, `
fn counter() {
	var n = 0
	return fn() {
		n = n + 1
		return n
	}
}
var bump = counter()
var a = bump()
var b = bump()
`)

	a, _ := in.Env.Find("a")
	b, _ := in.Env.Find("b")
	assert.Equal(t, int64(1), a.Int)
	assert.Equal(t, int64(2), b.Int)
}

func TestLambdaShortForm(t *testing.T) {
	in := run(t, `
var double = fn(x) x * 2
var y = double(21)
`)

	y, _ := in.Env.Find("y")
	assert.Equal(t, int64(42), y.Int)
}

func TestInstanceFieldsAreIndependentOfClass(t *testing.T) {
	in := run(t, `
class Counter {
	var count = 0
	fn bump() {
		count = count + 1
	}
}
var a = Counter()
var b = Counter()
a.bump()
a.bump()
b.bump()
var ca = a.count
var cb = b.count
`)

	ca, _ := in.Env.Find("ca")
	cb, _ := in.Env.Find("cb")
	assert.Equal(t, int64(2), ca.Int)
	assert.Equal(t, int64(1), cb.Int)
}

func TestInitRunsAtInstantiation(t *testing.T) {
	in := run(t, `
class Pair {
	var a = 0
	var b = 0
	fn init(x, y) {
		a = x
		b = y
	}
}
var p = Pair(3, 4)
var sum = p.a + p.b
`)

	sum, _ := in.Env.Find("sum")
	assert.Equal(t, int64(7), sum.Int)
}

func TestSelfResolvesInsideMethods(t *testing.T) {
	in := run(t, `
class Named {
	var name = "bob"
	fn who() {
		return self.name
	}
}
var n = Named().who()
`)

	n, _ := in.Env.Find("n")
	assert.Equal(t, "bob", n.Str)
}

func TestStringPrimitiveMembers(t *testing.T) {
	in := run(t, `
var parts = "a,b,c".split(",")
var up = "bob".upper()
var has = "frugal".contains("rug")
`)

	parts, _ := in.Env.Find("parts")
	require.Len(t, parts.Vec, 3)
	up, _ := in.Env.Find("up")
	assert.Equal(t, "BOB", up.Str)
	has, _ := in.Env.Find("has")
	assert.True(t, has.Bool)
}

func TestVectorPushAndPop(t *testing.T) {
	in := run(t, `
var v = [1, 2]
v.push(3)
var last = v.pop()
var n = v.len()
`)

	last, _ := in.Env.Find("last")
	assert.Equal(t, int64(3), last.Int)
	n, _ := in.Env.Find("n")
	assert.Equal(t, int64(2), n.Int)
}

func TestMapIterationYieldsKeysInInsertionOrder(t *testing.T) {
	in := run(t, `
var m = {"z": 1, "a": 2, "m": 3}
var keys = []
for k in m {
	keys = keys + [k]
}
`)

	keys, _ := in.Env.Find("keys")
	require.Len(t, keys.Vec, 3)
	assert.Equal(t, "z", keys.Vec[0].Str)
	assert.Equal(t, "a", keys.Vec[1].Str)
	assert.Equal(t, "m", keys.Vec[2].Str)
}

func TestMapUnionIsLeftBiased(t *testing.T) {
	in := run(t, `
var merged = {"a": 1, "b": 2} + {"b": 99, "c": 3}
var b = merged["b"]
var n = merged.len()
`)

	b, _ := in.Env.Find("b")
	assert.Equal(t, int64(2), b.Int, "left entry wins on key collision")
	n, _ := in.Env.Find("n")
	assert.Equal(t, int64(3), n.Int)
}

func TestIndexAssignmentIntoVectorAndMap(t *testing.T) {
	in := run(t, `
var v = [1, 2, 3]
v[1] = 20
var m = {"a": 1}
m["a"] = 10
m["b"] = 2
`)

	v, _ := in.Env.Find("v")
	assert.Equal(t, int64(20), v.Vec[1].Int)
	m, _ := in.Env.Find("m")
	require.Len(t, m.Map, 2)
	assert.Equal(t, int64(10), m.Map[0].Val.Int)
}

func TestDivisionByZeroIsAnError(t *testing.T) {
	err := runErr(t, `var x = 1 / 0`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestArityMismatchIsAnError(t *testing.T) {
	err := runErr(t, `
fn two(a, b) { return a }
two(1)
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 argument(s), got 1")
}

func TestAssignmentCannotChangeKind(t *testing.T) {
	err := runErr(t, `
var x = 1
x = "now a string"
`)

	require.Error(t, err)
}

func TestAssignmentThroughNoneIsAllowed(t *testing.T) {
	in := run(t, `
var x = none
x = 5
x = none
x = "str"
`)

	x, _ := in.Env.Find("x")
	assert.Equal(t, "str", x.Str)
}

func TestCallablesCannotBeReassigned(t *testing.T) {
	err := runErr(t, `
fn f() { return 1 }
f = 2
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot reassign")
}

func TestLogicalOperatorsRequireBooleans(t *testing.T) {
	err := runErr(t, `var x = 1 && true`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs booleans")
}

func TestLogicalExclusiveOr(t *testing.T) {
	in := run(t, `
var a = true ^^ false
var b = true ^^ true
`)

	a, _ := in.Env.Find("a")
	assert.True(t, a.Bool)
	b, _ := in.Env.Find("b")
	assert.False(t, b.Bool)
}

func TestOrderingOnlyDefinedOnIntegers(t *testing.T) {
	err := runErr(t, `var x = "a" < "b"`)

	require.Error(t, err)
}

func TestEqualityAgainstNoneIsLegal(t *testing.T) {
	in := run(t, `
var x = none
var isNone = x == none
var isSet = x != none
`)

	isNone, _ := in.Env.Find("isNone")
	assert.True(t, isNone.Bool)
	isSet, _ := in.Env.Find("isSet")
	assert.False(t, isSet.Bool)
}

func TestDeepEqualityThroughContainers(t *testing.T) {
	in := run(t, `
var same = [1, {"k": [2]}] == [1, {"k": [2]}]
var diff = [1] == [2]
`)

	same, _ := in.Env.Find("same")
	assert.True(t, same.Bool)
	diff, _ := in.Env.Find("diff")
	assert.False(t, diff.Bool)
}

func TestReturnAtTopLevelIsAnError(t *testing.T) {
	err := runErr(t, `return 1`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "return outside of a function")
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	err := runErr(t, `break`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "break outside of a loop")
}

func TestBreakInsideFunctionButOutsideLoopIsAnError(t *testing.T) {
	err := runErr(t, `
fn f() {
	break
}
f()
`)

	require.Error(t, err)
}

func TestValuedReturnInsideClassBodyIsAnError(t *testing.T) {
	err := runErr(t, `
class Bad {
	return 1
}
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "class body")
}

func TestOutOfRangeIndexIsAnError(t *testing.T) {
	err := runErr(t, `var x = [1, 2][5]`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestAssertWithoutMessageEchoesSourceText(t *testing.T) {
	err := runErr(t, `assert 1 == 2`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion test '1 == 2' failed")
}

func TestUndefinedIdentifierIsAnError(t *testing.T) {
	err := runErr(t, `var x = nowhere`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined identifier")
}

func TestPowerOperator(t *testing.T) {
	in := run(t, `var x = 2 ** 10`)

	x, _ := in.Env.Find("x")
	assert.Equal(t, int64(1024), x.Int)
}

func TestStaticMemberAccessOnClass(t *testing.T) {
	in := run(t, `
class Tool {
	static fn version() {
		return 3
	}
}
var v = Tool.version()
`)

	v, _ := in.Env.Find("v")
	assert.Equal(t, int64(3), v.Int)
}

func TestHostInstantiateHookWins(t *testing.T) {
	prog, errs := parser.Parse([]byte(`
extern Magic
var m = Magic()
`))
	require.Empty(t, errs)

	host := &stubHost{}
	in := interp.New(host)
	require.NoError(t, in.Run(prog))

	m, ok := in.Env.Find("m")
	require.True(t, ok)
	assert.Equal(t, value.KindString, m.Kind)
	assert.Equal(t, "conjured", m.Str)
}

// stubHost resolves every extern to a class stub and intercepts its
// instantiation, the way hostbridge.Bridge routes Cc/Linker construction.
type stubHost struct{}

func (*stubHost) ResolveExtern(name string) (*value.Value, error) {
	return &value.Value{
		Kind: value.KindFn,
		Name: name,
		Fn:   &value.Fn{FnKind: value.FnClass, Name: name},
	}, nil
}

func (*stubHost) ClassDeclared(*value.Value) error { return nil }

func (*stubHost) Instantiate(class *value.Value, args []*value.Value) (*value.Value, bool, error) {
	return value.NewString("conjured"), true, nil
}
