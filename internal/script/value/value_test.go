package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.False(t, None.Truthy())
	assert.False(t, NewBool(false).Truthy())
	assert.True(t, NewBool(true).Truthy())
	assert.False(t, NewInt(0).Truthy())
	assert.True(t, NewInt(1).Truthy())
	assert.False(t, NewString("").Truthy())
	assert.True(t, NewString("x").Truthy())
	assert.False(t, NewVec(nil).Truthy())
	assert.True(t, NewVec([]*Value{NewInt(1)}).Truthy())
}

func TestEqStructural(t *testing.T) {
	a := NewVec([]*Value{NewInt(1), NewString("x")})
	b := NewVec([]*Value{NewInt(1), NewString("x")})
	c := NewVec([]*Value{NewInt(2)})

	assert.True(t, Eq(a, b))
	assert.False(t, Eq(a, c))
	assert.False(t, Eq(NewInt(1), NewString("1")))
}

func TestEqMapIsOrderIndependent(t *testing.T) {
	a := NewMap([]MapEntry{
		{Key: NewString("a"), Val: NewInt(1)},
		{Key: NewString("b"), Val: NewInt(2)},
	})
	b := NewMap([]MapEntry{
		{Key: NewString("b"), Val: NewInt(2)},
		{Key: NewString("a"), Val: NewInt(1)},
	})

	assert.True(t, Eq(a, b))
}

func TestCopyDetachesVectorBackingArray(t *testing.T) {
	original := NewVec([]*Value{NewInt(1)})
	cp := original.Copy()
	cp.Vec = append(cp.Vec, NewInt(2))

	assert.Len(t, original.Vec, 1)
	assert.Len(t, cp.Vec, 2)
}

func TestTypeStrDistinguishesFnKinds(t *testing.T) {
	extern := &Value{Kind: KindFn, Fn: &Fn{FnKind: FnExtern}}
	class := &Value{Kind: KindFn, Fn: &Fn{FnKind: FnClass}}

	assert.Equal(t, "external function", extern.TypeStr())
	assert.Equal(t, "class", class.TypeStr())
	assert.Equal(t, "integer", NewInt(1).TypeStr())
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "true", NewBool(true).String())
	assert.Equal(t, "42", NewInt(42).String())
	assert.Equal(t, "hi", NewString("hi").String())
	assert.Equal(t, "<none>", None.String())
	assert.Equal(t, `["a", "b"]`, NewVec([]*Value{NewString("a"), NewString("b")}).String())

	m := NewMap([]MapEntry{{Key: NewString("k"), Val: NewInt(1)}})
	assert.Equal(t, `{"k": 1}`, m.String())
}

func TestStringRenderingForCallables(t *testing.T) {
	named := &Value{Kind: KindFn, Fn: &Fn{FnKind: FnScript, Name: "compile"}}
	anon := &Value{Kind: KindFn, Fn: &Fn{FnKind: FnScript}}

	assert.Equal(t, "<function compile>", named.String())
	assert.Equal(t, "<anonymous function>", anon.String())
}
