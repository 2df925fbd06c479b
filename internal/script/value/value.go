// Package value implements the Script Language's runtime value model: a
// small tagged union (none/bool/int/string/vector/map/function/instance)
// plus the lexical scope stack closures capture over. Value lifetime is
// the garbage collector's job; nothing here is reference counted.
package value

import "fmt"

// Kind identifies a Value's runtime type.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindString
	KindVec
	KindMap
	KindFn
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindVec:
		return "vector"
	case KindMap:
		return "map"
	case KindFn:
		return "function"
	case KindInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// FnKind distinguishes the four callable shapes a KindFn value can take.
type FnKind int

const (
	FnScript FnKind = iota // a fn declared in script, possibly a closure
	FnExtern                // a host-provided external function
	FnClass                  // a class used as its own constructor
	FnPrimitiveMember        // a bound member on a primitive type (e.g. string.len)
)

// MapEntry is one key/value pair in a Value of KindMap, kept in insertion
// order.
type MapEntry struct {
	Key *Value
	Val *Value
}

// Fn is the function payload of a Value of KindFn.
type Fn struct {
	FnKind FnKind
	Name   string
	Params []string

	// Script holds the function body for FnScript/FnClass; nil for externs.
	Script ScriptBody

	// Closure is the captured scope stack snapshot for FnScript functions
	// (top-level ones included) and FnClass classes; nil for externs.
	Closure *Env

	// Extern is the Go callback backing an FnExtern/FnPrimitiveMember value.
	Extern func(args []*Value) (*Value, error)

	// Static marks a class method declared `static fn` — called without an
	// implicit self.
	Static bool
}

// ScriptBody is implemented by internal/script/ast.Block, kept as an
// interface here so this package does not import ast (ast imports lexer,
// not value; interp wires the two together).
type ScriptBody interface{}

// Instance is the payload of a Value of KindInstance: an object's field
// scope plus a back-reference to the class it was built from.
type Instance struct {
	Class *Value // the KindFn/FnClass value this was instantiated from
	Scope *Scope
}

// Value is a single runtime value. Only the field matching Kind is valid.
type Value struct {
	Kind Kind

	Bool bool
	Int  int64
	Str  string
	Vec  []*Value
	Map  []MapEntry
	Fn   *Fn
	Inst *Instance

	// Name is the value's binding name where known, used for diagnostics
	// (e.g. "cannot call 'foo': not a function").
	Name string

	// Owner is the scope this value's binding lives in, when known; used
	// only for diagnostics.
	Owner *Scope
}

// None is the singleton none value's kind marker; none values carry no
// payload so a fresh Value{Kind: KindNone} is always equivalent to it.
var None = &Value{Kind: KindNone}

// NewBool, NewInt, NewString, NewVec, NewMap construct literal values.
func NewBool(b bool) *Value        { return &Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) *Value        { return &Value{Kind: KindInt, Int: i} }
func NewString(s string) *Value    { return &Value{Kind: KindString, Str: s} }
func NewVec(elems []*Value) *Value { return &Value{Kind: KindVec, Vec: elems} }
func NewMap(entries []MapEntry) *Value { return &Value{Kind: KindMap, Map: entries} }

// TypeStr reports the diagnostic type name: function values report their
// specific FnKind rather than the generic "function".
func (v *Value) TypeStr() string {
	if v.Kind != KindFn {
		return v.Kind.String()
	}
	switch v.Fn.FnKind {
	case FnExtern:
		return "external function"
	case FnClass:
		return "class"
	case FnPrimitiveMember:
		return "primitive type member"
	default:
		return "function"
	}
}

// RoleStr reports whether a value reads as a "variable" or a callable
// kind in diagnostics.
func (v *Value) RoleStr() string {
	if v.Kind == KindFn {
		return v.TypeStr()
	}
	return "variable"
}

// Truthy implements the language's truthiness rules: none and false(bool)
// are falsy, zero-valued int/string/vec/map are falsy, everything else is
// truthy (functions and instances are always truthy).
func (v *Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindString:
		return v.Str != ""
	case KindVec:
		return len(v.Vec) != 0
	case KindMap:
		return len(v.Map) != 0
	default:
		return true
	}
}

// Copy performs a deep-ish copy: primitives and functions are shared,
// vectors and maps get a fresh backing slice (their elements are shared,
// since Value itself has no further mutable substructure once built).
func (v *Value) Copy() *Value {
	cp := *v
	switch v.Kind {
	case KindVec:
		cp.Vec = append([]*Value(nil), v.Vec...)
	case KindMap:
		cp.Map = append([]MapEntry(nil), v.Map...)
	}
	return &cp
}

// Eq implements structural equality, deep through vectors and maps.
func Eq(a, b *Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindString:
		return a.Str == b.Str
	case KindVec:
		if len(a.Vec) != len(b.Vec) {
			return false
		}
		for i := range a.Vec {
			if !Eq(a.Vec[i], b.Vec[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for _, ea := range a.Map {
			found := false
			for _, eb := range b.Map {
				if Eq(ea.Key, eb.Key) && Eq(ea.Val, eb.Val) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindFn:
		return a.Fn == b.Fn
	case KindInstance:
		return a.Inst == b.Inst
	default:
		return false
	}
}

// String renders a value for `print` and diagnostic interpolation.
func (v *Value) String() string {
	switch v.Kind {
	case KindNone:
		return "<none>"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindString:
		return v.Str
	case KindVec:
		s := "["
		for i, e := range v.Vec {
			if i > 0 {
				s += ", "
			}
			s += e.Quoted()
		}
		return s + "]"
	case KindMap:
		s := "{"
		for i, e := range v.Map {
			if i > 0 {
				s += ", "
			}
			s += e.Key.Quoted() + ": " + e.Val.Quoted()
		}
		return s + "}"
	case KindFn:
		if v.Fn.Name == "" {
			return "<anonymous function>"
		}
		return fmt.Sprintf("<%s %s>", v.TypeStr(), v.Fn.Name)
	case KindInstance:
		name := "<instance>"
		if v.Inst != nil && v.Inst.Class != nil {
			name = fmt.Sprintf("<instance of %s>", v.Inst.Class.Fn.Name)
		}
		return name
	default:
		return "<unknown>"
	}
}

// Quoted renders a value the way it appears nested inside a vector/map
// print, where strings are shown quoted.
func (v *Value) Quoted() string {
	if v.Kind == KindString {
		return fmt.Sprintf("%q", v.Str)
	}
	return v.String()
}
