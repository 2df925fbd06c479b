package hostbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobsh/bob/internal/script/hostclass"
	"github.com/bobsh/bob/internal/script/value"
)

type echoFunc struct{}

func (echoFunc) Call(args []*value.Value) (*value.Value, error) {
	if len(args) == 0 {
		return value.None, nil
	}
	return args[0], nil
}

type flagCtor struct{}

func (flagCtor) New(args []*value.Value) (*value.Value, error) {
	return value.NewString("constructed"), nil
}

func newBridge(t *testing.T) *Bridge {
	t.Helper()
	reg := hostclass.NewRegistry()
	reg.Register("echo", echoFunc{})
	reg.Register("Linker", flagCtor{})
	return NewWithRegistry(reg)
}

func TestResolveExternFuncIsDirectlyCallable(t *testing.T) {
	b := newBridge(t)

	v, err := b.ResolveExtern("echo")

	require.NoError(t, err)
	require.Equal(t, value.KindFn, v.Kind)
	assert.Equal(t, value.FnExtern, v.Fn.FnKind)

	out, err := v.Fn.Extern([]*value.Value{value.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Int)
}

func TestResolveExternConstructorIsAClassStub(t *testing.T) {
	b := newBridge(t)

	v, err := b.ResolveExtern("Linker")

	require.NoError(t, err)
	assert.Equal(t, value.FnClass, v.Fn.FnKind)
}

func TestResolveExternUnknownNameSuggestsNear(t *testing.T) {
	b := newBridge(t)

	_, err := b.ResolveExtern("Linkr")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extern")
	assert.Contains(t, err.Error(), "Linker")
}

func TestInstantiateRoutesRegisteredClassToConstructor(t *testing.T) {
	b := newBridge(t)
	class := &value.Value{Kind: value.KindFn, Fn: &value.Fn{FnKind: value.FnClass, Name: "Linker"}}

	v, handled, err := b.Instantiate(class, nil)

	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, "constructed", v.Str)
}

func TestInstantiateFallsThroughForScriptClasses(t *testing.T) {
	b := newBridge(t)
	class := &value.Value{Kind: value.KindFn, Fn: &value.Fn{FnKind: value.FnClass, Name: "UserDefined"}}

	_, handled, err := b.Instantiate(class, nil)

	require.NoError(t, err)
	assert.False(t, handled)
}

func TestInstantiateRejectsFunctionOnlyEntries(t *testing.T) {
	b := newBridge(t)
	class := &value.Value{Kind: value.KindFn, Fn: &value.Fn{FnKind: value.FnClass, Name: "echo"}}

	_, handled, err := b.Instantiate(class, nil)

	require.True(t, handled)
	assert.Error(t, err)
}
