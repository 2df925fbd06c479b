package interp

import (
	"fmt"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/lexer"
	"github.com/bobsh/bob/internal/script/value"
)

func (in *Interp) eval(e ast.Expr) (*value.Value, error) {
	switch n := e.(type) {
	case *ast.NoneLit:
		return value.None, nil
	case *ast.BoolLit:
		return value.NewBool(n.Value), nil
	case *ast.IntLit:
		return value.NewInt(n.Value), nil
	case *ast.StringLit:
		return value.NewString(n.Value), nil
	case *ast.Ident:
		return in.evalIdent(n)
	case *ast.SelfExpr:
		return in.evalSelf(n)
	case *ast.VecLit:
		return in.evalVecLit(n)
	case *ast.MapLit:
		return in.evalMapLit(n)
	case *ast.Unary:
		return in.evalUnary(n)
	case *ast.Binary:
		return in.evalBinary(n)
	case *ast.Index:
		return in.evalIndex(n)
	case *ast.FieldAccess:
		return in.evalFieldAccess(n)
	case *ast.Call:
		return in.evalCall(n)
	case *ast.Lambda:
		return in.evalLambda(n)
	default:
		return nil, berr.New(berr.Script, "%s: unhandled expression type %T", e.Pos(), e)
	}
}

func (in *Interp) evalIdent(n *ast.Ident) (*value.Value, error) {
	if v, ok := in.Env.Find(n.Name); ok {
		return v, nil
	}
	return nil, berr.New(berr.Script, "%s: undefined identifier %q", n.Pos(), n.Name)
}

func (in *Interp) evalSelf(n *ast.SelfExpr) (*value.Value, error) {
	if v, ok := in.Env.Find("self"); ok {
		return v, nil
	}
	return nil, berr.New(berr.Script, "%s: 'self' used outside of a method", n.Pos())
}

func (in *Interp) evalVecLit(n *ast.VecLit) (*value.Value, error) {
	elems := make([]*value.Value, len(n.Elems))
	for i, e := range n.Elems {
		v, err := in.eval(e)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.NewVec(elems), nil
}

func (in *Interp) evalMapLit(n *ast.MapLit) (*value.Value, error) {
	entries := make([]value.MapEntry, len(n.Entries))
	for i, e := range n.Entries {
		k, err := in.eval(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := in.eval(e.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = value.MapEntry{Key: k, Val: v}
	}
	return value.NewMap(entries), nil
}

func (in *Interp) evalUnary(n *ast.Unary) (*value.Value, error) {
	x, err := in.eval(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case lexer.MINUS:
		if x.Kind != value.KindInt {
			return nil, berr.New(berr.Script, "%s: unary '-' needs an integer, got %s", n.Pos(), x.TypeStr())
		}
		return value.NewInt(-x.Int), nil
	case lexer.NOT:
		if x.Kind != value.KindBool {
			return nil, berr.New(berr.Script, "%s: unary '!' needs a boolean, got %s", n.Pos(), x.TypeStr())
		}
		return value.NewBool(!x.Bool), nil
	default:
		return nil, berr.New(berr.Script, "%s: unsupported unary operator %s", n.Pos(), n.Op)
	}
}

func (in *Interp) evalBinary(n *ast.Binary) (*value.Value, error) {
	left, err := in.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(n.Right)
	if err != nil {
		return nil, err
	}

	// Logical operators evaluate both sides left to right (no short-circuit)
	// and require boolean operands on both sides.
	if n.Op == lexer.AND || n.Op == lexer.OR || n.Op == lexer.XOR {
		if left.Kind != value.KindBool || right.Kind != value.KindBool {
			return nil, berr.New(berr.Script, "%s: operator %s needs booleans, got %s and %s",
				n.Pos(), n.Op, left.TypeStr(), right.TypeStr())
		}
		switch n.Op {
		case lexer.AND:
			return value.NewBool(left.Bool && right.Bool), nil
		case lexer.OR:
			return value.NewBool(left.Bool || right.Bool), nil
		default:
			return value.NewBool(left.Bool != right.Bool), nil
		}
	}

	switch n.Op {
	case lexer.EQ:
		return value.NewBool(value.Eq(left, right)), nil
	case lexer.NEQ:
		return value.NewBool(!value.Eq(left, right)), nil
	}

	if n.Op == lexer.PLUS && left.Kind == value.KindString && right.Kind == value.KindString {
		return value.NewString(left.Str + right.Str), nil
	}
	if n.Op == lexer.PLUS && left.Kind == value.KindVec && right.Kind == value.KindVec {
		return value.NewVec(append(append([]*value.Value(nil), left.Vec...), right.Vec...)), nil
	}
	if n.Op == lexer.PLUS && left.Kind == value.KindMap && right.Kind == value.KindMap {
		return mapUnion(left, right), nil
	}

	if left.Kind != value.KindInt || right.Kind != value.KindInt {
		return nil, berr.New(berr.Script, "%s: operator %s needs integers, got %s and %s",
			n.Pos(), n.Op, left.TypeStr(), right.TypeStr())
	}

	a, b := left.Int, right.Int
	switch n.Op {
	case lexer.PLUS:
		return value.NewInt(a + b), nil
	case lexer.MINUS:
		return value.NewInt(a - b), nil
	case lexer.STAR:
		return value.NewInt(a * b), nil
	case lexer.SLASH:
		if b == 0 {
			return nil, berr.New(berr.Script, "%s: division by zero", n.Pos())
		}
		return value.NewInt(a / b), nil
	case lexer.PERCENT:
		if b == 0 {
			return nil, berr.New(berr.Script, "%s: modulo by zero", n.Pos())
		}
		return value.NewInt(a % b), nil
	case lexer.POW:
		return value.NewInt(intPow(a, b)), nil
	case lexer.LT:
		return value.NewBool(a < b), nil
	case lexer.LTE:
		return value.NewBool(a <= b), nil
	case lexer.GT:
		return value.NewBool(a > b), nil
	case lexer.GTE:
		return value.NewBool(a >= b), nil
	default:
		return nil, berr.New(berr.Script, "%s: unsupported binary operator %s", n.Pos(), n.Op)
	}
}

// mapUnion merges two maps left-biased: on key collision the left map's
// entry wins, and the right map's entries keep their relative order after
// the left's.
func mapUnion(left, right *value.Value) *value.Value {
	entries := append([]value.MapEntry(nil), left.Map...)
	for _, re := range right.Map {
		collides := false
		for _, le := range left.Map {
			if value.Eq(le.Key, re.Key) {
				collides = true
				break
			}
		}
		if !collides {
			entries = append(entries, re)
		}
	}
	return value.NewMap(entries)
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func (in *Interp) evalIndex(n *ast.Index) (*value.Value, error) {
	container, err := in.eval(n.X)
	if err != nil {
		return nil, err
	}
	idx, err := in.eval(n.Index)
	if err != nil {
		return nil, err
	}

	switch container.Kind {
	case value.KindVec:
		if idx.Kind != value.KindInt {
			return nil, berr.New(berr.Script, "%s: vector index must be an integer, got %s", n.Pos(), idx.TypeStr())
		}
		i := idx.Int
		if i < 0 || i >= int64(len(container.Vec)) {
			return nil, berr.New(berr.Script, "%s: vector index %d out of range (len %d)", n.Pos(), i, len(container.Vec))
		}
		return container.Vec[i], nil
	case value.KindMap:
		for _, e := range container.Map {
			if value.Eq(e.Key, idx) {
				return e.Val, nil
			}
		}
		return nil, berr.New(berr.Script, "%s: key %s not found in map", n.Pos(), idx.Quoted())
	case value.KindString:
		if idx.Kind != value.KindInt {
			return nil, berr.New(berr.Script, "%s: string index must be an integer, got %s", n.Pos(), idx.TypeStr())
		}
		runes := []rune(container.Str)
		i := idx.Int
		if i < 0 || i >= int64(len(runes)) {
			return nil, berr.New(berr.Script, "%s: string index %d out of range (len %d)", n.Pos(), i, len(runes))
		}
		return value.NewString(string(runes[i])), nil
	default:
		return nil, berr.New(berr.Script, "%s: cannot index into %s", n.Pos(), container.TypeStr())
	}
}

func (in *Interp) evalFieldAccess(n *ast.FieldAccess) (*value.Value, error) {
	obj, err := in.eval(n.X)
	if err != nil {
		return nil, err
	}
	v, err := fieldOf(obj, n.Field)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.Pos(), err)
	}
	return v, nil
}

func fieldOf(obj *value.Value, field string) (*value.Value, error) {
	switch obj.Kind {
	case value.KindInstance:
		if v, ok := obj.Inst.Scope.FindVar(field); ok {
			return v, nil
		}
		if obj.Inst.Class != nil {
			if info, ok := obj.Inst.Class.Fn.Script.(*classInfo); ok {
				if v, ok := info.static.FindVar(field); ok {
					return v, nil
				}
			}
		}
		return nil, berr.New(berr.Script, "instance has no field or method %q", field)
	case value.KindFn:
		if obj.Fn.FnKind == value.FnClass {
			if info, ok := obj.Fn.Script.(*classInfo); ok {
				if v, ok := info.static.FindVar(field); ok {
					return v, nil
				}
			}
		}
		return nil, berr.New(berr.Script, "%s has no static member %q", obj.TypeStr(), field)
	case value.KindString:
		return primitiveMember(obj, field)
	case value.KindVec:
		return primitiveMember(obj, field)
	case value.KindMap:
		return primitiveMember(obj, field)
	default:
		return nil, berr.New(berr.Script, "cannot access field %q on %s", field, obj.TypeStr())
	}
}

func (in *Interp) evalLambda(n *ast.Lambda) (*value.Value, error) {
	var body value.ScriptBody
	if n.Body != nil {
		body = n.Body
	} else {
		body = n.Expr
	}
	return &value.Value{
		Kind: value.KindFn,
		Fn: &value.Fn{
			FnKind:  value.FnScript,
			Params:  n.Params,
			Script:  body,
			Closure: in.Env.CloseOver(),
		},
	}, nil
}
