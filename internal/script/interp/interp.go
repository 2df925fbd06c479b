// Package interp tree-walks an internal/script/ast.Program against the
// internal/script/value runtime model. Host integration (external
// functions, class declaration/instantiation hooks) is injected through
// the Host interface so this package stays independent of what bob's
// build-step host classes actually do.
package interp

import (
	"fmt"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/value"
)

// Host lets a build.fl's surrounding program observe and intervene in
// script execution at three points: resolving an extern prototype,
// handling a class finishing its declaration, and handling class
// instantiation directly (bob's host classes like Cc or Cargo hook the
// last one, so script-side `Cc(...)` calls build host instances).
type Host interface {
	// ResolveExtern returns the external-function value bound to an
	// `extern name` declaration, or an error if name isn't host-provided.
	ResolveExtern(name string) (*value.Value, error)

	// ClassDeclared is called once a `class Foo { ... }` finishes
	// evaluating its body, with the resulting class value.
	ClassDeclared(class *value.Value) error

	// Instantiate is given the first opportunity to build an instance of
	// class with the given constructor args. Returning ok=false falls back
	// to the interpreter's default class-body instantiation.
	Instantiate(class *value.Value, args []*value.Value) (inst *value.Value, ok bool, err error)
}

// NopHost implements Host with no host classes at all, useful for tests
// that only exercise the pure language core.
type NopHost struct{}

func (NopHost) ResolveExtern(name string) (*value.Value, error) {
	return nil, berr.New(berr.Script, "undeclared extern %q: no host binding", name)
}
func (NopHost) ClassDeclared(*value.Value) error { return nil }
func (NopHost) Instantiate(*value.Value, []*value.Value) (*value.Value, bool, error) {
	return nil, false, nil
}

// Interp walks one program's statements against a single root environment.
type Interp struct {
	Env  *value.Env
	Host Host
}

// New creates an interpreter with a fresh root environment.
func New(host Host) *Interp {
	if host == nil {
		host = NopHost{}
	}
	return &Interp{Env: value.NewEnv(), Host: host}
}

// Run executes prog's top-level statements in the interpreter's root scope.
func (in *Interp) Run(prog *ast.Program) error {
	c, err := in.execStmts(prog.Stmts)
	if err != nil {
		return err
	}
	switch c.kind {
	case ctrlReturn:
		return berr.New(berr.Script, "return outside of a function")
	case ctrlBreak:
		return berr.New(berr.Script, "break outside of a loop")
	case ctrlContinue:
		return berr.New(berr.Script, "continue outside of a loop")
	}
	return nil
}

// ctrlKind classifies a non-local jump bubbling up through exec calls.
type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

type ctrl struct {
	kind ctrlKind
	val  *value.Value
}

var noCtrl = ctrl{kind: ctrlNone}

func (in *Interp) execStmts(stmts []ast.Stmt) (ctrl, error) {
	for _, s := range stmts {
		c, err := in.execStmt(s)
		if err != nil {
			return noCtrl, err
		}
		if c.kind != ctrlNone {
			return c, nil
		}
	}
	return noCtrl, nil
}

func (in *Interp) execBlock(b *ast.Block) (ctrl, error) {
	in.Env.PushScope()
	defer in.Env.PopScope()
	return in.execStmts(b.Stmts)
}

func (in *Interp) execStmt(s ast.Stmt) (ctrl, error) {
	switch n := s.(type) {
	case *ast.VarDecl:
		return noCtrl, in.execVarDecl(n)
	case *ast.Assign:
		return noCtrl, in.execAssign(n)
	case *ast.FuncDecl:
		return noCtrl, in.execFuncDecl(n)
	case *ast.ClassDecl:
		return noCtrl, in.execClassDecl(n)
	case *ast.ExternDecl:
		return noCtrl, in.execExternDecl(n)
	case *ast.ImportStmt:
		return noCtrl, nil // resolved at module-load time, not executed
	case *ast.ExprStmt:
		_, err := in.eval(n.X)
		return noCtrl, err
	case *ast.PrintStmt:
		v, err := in.eval(n.X)
		if err != nil {
			return noCtrl, err
		}
		fmt.Println(v.String())
		return noCtrl, nil
	case *ast.AssertStmt:
		return noCtrl, in.execAssert(n)
	case *ast.ReturnStmt:
		if n.Value == nil {
			return ctrl{kind: ctrlReturn, val: value.None}, nil
		}
		v, err := in.eval(n.Value)
		if err != nil {
			return noCtrl, err
		}
		return ctrl{kind: ctrlReturn, val: v}, nil
	case *ast.BreakStmt:
		return ctrl{kind: ctrlBreak}, nil
	case *ast.ContinueStmt:
		return ctrl{kind: ctrlContinue}, nil
	case *ast.Block:
		return in.execBlock(n)
	case *ast.IfStmt:
		return in.execIf(n)
	case *ast.ForStmt:
		return in.execFor(n)
	default:
		return noCtrl, berr.New(berr.Script, "unhandled statement type %T", s)
	}
}

func (in *Interp) execVarDecl(n *ast.VarDecl) error {
	v := &value.Value{Kind: value.KindNone}
	if n.Value != nil {
		var err error
		v, err = in.eval(n.Value)
		if err != nil {
			return err
		}
		if v == value.None {
			// Never stamp a binding name onto the shared none singleton.
			v = &value.Value{Kind: value.KindNone}
		}
	}
	v.Name = n.Name
	v.Owner = in.Env.Cur()
	in.Env.Cur().AddVar(n.Name, v)
	return nil
}

func (in *Interp) execAssign(n *ast.Assign) error {
	v, err := in.eval(n.Value)
	if err != nil {
		return err
	}
	switch target := n.Target.(type) {
	case *ast.Ident:
		prev, ok := in.Env.Find(target.Name)
		if !ok {
			return berr.New(berr.Script, "%s: assignment to undeclared variable %q", target.Pos(), target.Name)
		}
		if prev.Kind == value.KindFn {
			return berr.New(berr.Script, "%s: cannot reassign %s %q", target.Pos(), prev.TypeStr(), target.Name)
		}
		if prev.Kind != v.Kind && prev.Kind != value.KindNone && v.Kind != value.KindNone {
			return berr.New(berr.Script, "%s: cannot assign %s to %q, which holds a %s",
				target.Pos(), v.TypeStr(), target.Name, prev.Kind)
		}
		in.Env.Assign(target.Name, v)
		return nil
	case *ast.Index:
		container, err := in.eval(target.X)
		if err != nil {
			return err
		}
		idx, err := in.eval(target.Index)
		if err != nil {
			return err
		}
		return assignIndex(container, idx, v)
	case *ast.FieldAccess:
		obj, err := in.eval(target.X)
		if err != nil {
			return err
		}
		return assignField(obj, target.Field, v)
	default:
		return berr.New(berr.Script, "%s: invalid assignment target", n.Pos())
	}
}

func assignIndex(container, idx, v *value.Value) error {
	switch container.Kind {
	case value.KindVec:
		if idx.Kind != value.KindInt {
			return berr.New(berr.Script, "vector index must be an integer, got %s", idx.TypeStr())
		}
		i := idx.Int
		if i < 0 || i >= int64(len(container.Vec)) {
			return berr.New(berr.Script, "vector index %d out of range (len %d)", i, len(container.Vec))
		}
		container.Vec[i] = v
		return nil
	case value.KindMap:
		for i := range container.Map {
			if value.Eq(container.Map[i].Key, idx) {
				container.Map[i].Val = v
				return nil
			}
		}
		container.Map = append(container.Map, value.MapEntry{Key: idx, Val: v})
		return nil
	default:
		return berr.New(berr.Script, "cannot index into %s", container.TypeStr())
	}
}

func assignField(obj *value.Value, field string, v *value.Value) error {
	if obj.Kind != value.KindInstance {
		return berr.New(berr.Script, "cannot assign field %q on %s", field, obj.TypeStr())
	}
	obj.Inst.Scope.AddVar(field, v)
	return nil
}

func (in *Interp) execFuncDecl(n *ast.FuncDecl) error {
	fn := &value.Value{
		Kind: value.KindFn,
		Name: n.Name,
		Fn: &value.Fn{
			FnKind:  value.FnScript,
			Name:    n.Name,
			Params:  n.Params,
			Script:  n.Body,
			Closure: in.Env.CloseOver(),
			Static:  n.Static,
		},
	}
	in.Env.Cur().AddVar(n.Name, fn)
	return nil
}

func (in *Interp) execExternDecl(n *ast.ExternDecl) error {
	fn, err := in.Host.ResolveExtern(n.Name)
	if err != nil {
		return err
	}
	fn.Name = n.Name
	in.Env.Cur().AddVar(n.Name, fn)
	return nil
}

// classInfo is the FnClass payload stored in value.Fn.Script: the class's
// body AST, re-executed per instantiation so each instance's methods close
// over their own field scope, plus the static scope evaluated once at
// declaration time.
type classInfo struct {
	body   []ast.Stmt
	static *value.Scope
}

// execClassDecl evaluates the class's static members into a dedicated
// static scope and binds the class value. The rest of the body is kept as
// AST and executed freshly by instantiate for every new instance.
func (in *Interp) execClassDecl(n *ast.ClassDecl) error {
	staticScope := value.NewScope()
	staticScope.ClassScope = true

	in.Env.PushScopeRaw(staticScope)
	var err error
	for _, s := range n.Body {
		if ret, ok := s.(*ast.ReturnStmt); ok && ret.Value != nil {
			err = berr.New(berr.Script, "%s: return with a value inside a class body", ret.Pos())
			break
		}
		fd, ok := s.(*ast.FuncDecl)
		if !ok || !fd.Static {
			continue
		}
		if err = in.execFuncDecl(fd); err != nil {
			break
		}
	}
	in.Env.PopScope()
	if err != nil {
		return err
	}

	class := &value.Value{
		Kind: value.KindFn,
		Name: n.Name,
		Fn: &value.Fn{
			FnKind:  value.FnClass,
			Name:    n.Name,
			Closure: in.Env.CloseOver(),
			Script:  &classInfo{body: n.Body, static: staticScope},
		},
	}
	staticScope.Owner = class

	in.Env.Cur().AddVar(n.Name, class)
	return in.Host.ClassDeclared(class)
}

func (in *Interp) execAssert(n *ast.AssertStmt) error {
	v, err := in.eval(n.Cond)
	if err != nil {
		return err
	}
	if v.Truthy() {
		return nil
	}
	if n.Message != nil {
		m, err := in.eval(n.Message)
		if err != nil {
			return err
		}
		return berr.New(berr.Script, "assertion test '%s' failed: %s", n.Source, m.String())
	}
	return berr.New(berr.Script, "assertion test '%s' failed", n.Source)
}

func (in *Interp) execIf(n *ast.IfStmt) (ctrl, error) {
	cond, err := in.eval(n.Cond)
	if err != nil {
		return noCtrl, err
	}
	if cond.Truthy() {
		return in.execBlock(n.Then)
	}
	for _, elif := range n.Elifs {
		c, err := in.eval(elif.Cond)
		if err != nil {
			return noCtrl, err
		}
		if c.Truthy() {
			return in.execBlock(elif.Body)
		}
	}
	if n.Else != nil {
		return in.execBlock(n.Else)
	}
	return noCtrl, nil
}

func (in *Interp) execFor(n *ast.ForStmt) (ctrl, error) {
	iterable, err := in.eval(n.Iterable)
	if err != nil {
		return noCtrl, err
	}

	items, err := iterate(iterable)
	if err != nil {
		return noCtrl, fmt.Errorf("%s: %w", n.Pos(), err)
	}

	for _, item := range items {
		in.Env.PushScope()
		in.Env.Cur().AddVar(n.Var, item)
		c, err := in.execStmts(n.Body.Stmts)
		in.Env.PopScope()
		if err != nil {
			return noCtrl, err
		}
		if c.kind == ctrlBreak {
			break
		}
		if c.kind == ctrlReturn {
			return c, nil
		}
		// ctrlContinue and ctrlNone both fall through to the next item.
	}
	return noCtrl, nil
}

// iterate produces the sequence of values a for-loop walks over: a vector
// in order, or a map's keys in insertion order. The iterated kind must be
// exactly vector or map; nothing else is iterable.
func iterate(v *value.Value) ([]*value.Value, error) {
	switch v.Kind {
	case value.KindVec:
		return v.Vec, nil
	case value.KindMap:
		items := make([]*value.Value, len(v.Map))
		for i, e := range v.Map {
			items[i] = e.Key
		}
		return items, nil
	default:
		return nil, berr.New(berr.Script, "cannot iterate over %s: expected a vector or map", v.TypeStr())
	}
}
