package interp

import (
	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/value"
)

func (in *Interp) evalCall(n *ast.Call) (*value.Value, error) {
	// Method calls (a.b(...)) need the receiver bound as an implicit first
	// argument / self binding, so they're special-cased ahead of a plain
	// callee evaluation.
	if fa, ok := n.Fn.(*ast.FieldAccess); ok {
		return in.evalMethodCall(n, fa)
	}

	callee, err := in.eval(n.Fn)
	if err != nil {
		return nil, err
	}
	args, err := in.evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	return in.call(n, callee, nil, args)
}

func (in *Interp) evalArgs(exprs []ast.Expr) ([]*value.Value, error) {
	args := make([]*value.Value, len(exprs))
	for i, e := range exprs {
		v, err := in.eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (in *Interp) evalMethodCall(n *ast.Call, fa *ast.FieldAccess) (*value.Value, error) {
	recv, err := in.eval(fa.X)
	if err != nil {
		return nil, err
	}
	method, err := fieldOf(recv, fa.Field)
	if err != nil {
		return nil, berr.New(berr.Script, "%s: %s", n.Pos(), err.Error())
	}
	args, err := in.evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	return in.call(n, method, recv, args)
}

// call dispatches a callee value, which may be a script function/lambda, a
// host extern, a class used as its own constructor, or a primitive-type
// member. self is non-nil for method calls bound to a receiver.
func (in *Interp) call(n *ast.Call, callee, self *value.Value, args []*value.Value) (*value.Value, error) {
	if callee.Kind != value.KindFn {
		return nil, berr.New(berr.Script, "%s: cannot call a %s", n.Pos(), callee.TypeStr())
	}

	switch callee.Fn.FnKind {
	case value.FnClass:
		return in.instantiate(callee, args)
	case value.FnExtern, value.FnPrimitiveMember:
		if callee.Fn.Extern == nil {
			return nil, berr.New(berr.Script, "%s: extern %q has no implementation", n.Pos(), callee.Fn.Name)
		}
		v, err := callee.Fn.Extern(args)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return in.callScript(callee, self, args)
	}
}

func (in *Interp) callScript(fn *value.Value, self *value.Value, args []*value.Value) (*value.Value, error) {
	if len(args) != len(fn.Fn.Params) {
		return nil, berr.New(berr.Script, "%s: expected %d argument(s), got %d", fn.Fn.Name, len(fn.Fn.Params), len(args))
	}

	saved := in.Env
	in.Env = fn.Fn.Closure.CloseOver()
	defer func() { in.Env = saved }()

	callScope := in.Env.PushScope()
	if self != nil && !fn.Fn.Static {
		callScope.AddVar("self", self)
	}
	for i, p := range fn.Fn.Params {
		callScope.AddVar(p, args[i])
	}

	switch body := fn.Fn.Script.(type) {
	case *ast.Block:
		c, err := in.execStmts(body.Stmts)
		if err != nil {
			return nil, err
		}
		switch c.kind {
		case ctrlReturn:
			return c.val, nil
		case ctrlBreak:
			return nil, berr.New(berr.Script, "%s: break outside of a loop", fn.Fn.Name)
		case ctrlContinue:
			return nil, berr.New(berr.Script, "%s: continue outside of a loop", fn.Fn.Name)
		}
		return value.None, nil
	case ast.Expr:
		return in.eval(body)
	default:
		return nil, berr.New(berr.Script, "%s: function has no body", fn.Fn.Name)
	}
}

// instantiate builds a KindInstance value from a class, giving the host a
// first chance to intervene (bob's host classes use this to construct,
// e.g., a Cc compile step instead of a plain field/method object). For a
// script class, the class body runs in a fresh scope which then becomes
// the instance's field scope, so every method declared during that run
// closes over this instance's own fields.
func (in *Interp) instantiate(class *value.Value, args []*value.Value) (*value.Value, error) {
	if inst, ok, err := in.Host.Instantiate(class, args); ok || err != nil {
		return inst, err
	}

	info, _ := class.Fn.Script.(*classInfo)
	if info == nil {
		return nil, berr.New(berr.Script, "class %q has no body", class.Fn.Name)
	}

	saved := in.Env
	in.Env = class.Fn.Closure.CloseOver()
	instScope := value.NewScope()
	instScope.ClassScope = true
	in.Env.PushScopeRaw(instScope)

	var c ctrl
	var err error
	for _, s := range info.body {
		if fd, ok := s.(*ast.FuncDecl); ok && fd.Static {
			continue
		}
		c, err = in.execStmt(s)
		if err != nil || c.kind != ctrlNone {
			break
		}
	}
	in.Env.PopScope()
	in.Env = saved
	if err != nil {
		return nil, err
	}
	if c.kind == ctrlReturn && c.val != nil && c.val.Kind != value.KindNone {
		return nil, berr.New(berr.Script, "return with a value inside class %q's body", class.Fn.Name)
	}
	if c.kind == ctrlBreak || c.kind == ctrlContinue {
		return nil, berr.New(berr.Script, "break/continue inside class %q's body", class.Fn.Name)
	}

	inst := &value.Value{
		Kind: value.KindInstance,
		Inst: &value.Instance{Class: class, Scope: instScope},
	}
	instScope.Owner = inst
	instScope.AddVar("self", inst)

	ctor, hasInit := instScope.FindVar("init")
	if hasInit && ctor.Kind == value.KindFn && ctor.Fn.FnKind == value.FnScript {
		if _, err := in.callScript(ctor, inst, args); err != nil {
			return nil, err
		}
	} else if len(args) > 0 {
		return nil, berr.New(berr.Script, "class %q takes no constructor arguments (no init method), got %d", class.Fn.Name, len(args))
	}
	return inst, nil
}
