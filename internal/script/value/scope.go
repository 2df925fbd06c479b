package value

// Var is one binding within a Scope.
type Var struct {
	Key string
	Val *Value
}

// Scope is a flat list of bindings within one lexical block. ClassScope
// marks a scope created for a class body, which the interpreter consults
// when deciding whether `self` is in play.
type Scope struct {
	vars       []Var
	Owner      *Value // the class or instance this scope belongs to, if any
	ClassScope bool
}

// NewScope creates an empty scope.
func NewScope() *Scope { return &Scope{} }

// AddVar declares key in this scope with value val, shadowing any outer
// binding of the same name. Redeclaring an existing key in the SAME scope
// overwrites it.
func (s *Scope) AddVar(key string, val *Value) {
	for i := range s.vars {
		if s.vars[i].Key == key {
			s.vars[i].Val = val
			return
		}
	}
	s.vars = append(s.vars, Var{Key: key, Val: val})
}

// FindVar looks up key within this scope only (no outer scopes).
func (s *Scope) FindVar(key string) (*Value, bool) {
	for i := range s.vars {
		if s.vars[i].Key == key {
			return s.vars[i].Val, true
		}
	}
	return nil, false
}

// SetVar assigns to an existing binding in this scope, reporting whether it
// existed.
func (s *Scope) SetVar(key string, val *Value) bool {
	for i := range s.vars {
		if s.vars[i].Key == key {
			s.vars[i].Val = val
			return true
		}
	}
	return false
}

// Vars returns all bindings in declaration order.
func (s *Scope) Vars() []Var { return s.vars }

// Env is a stack of scopes, innermost last. Lookups walk the stack from
// the top down to allow shadowing.
type Env struct {
	stack []*Scope
}

// NewEnv creates an environment with one empty root scope.
func NewEnv() *Env {
	return &Env{stack: []*Scope{NewScope()}}
}

// CloseOver snapshots the current scope stack by reference, so a closure
// keeps the scopes live after its defining function returns.
func (e *Env) CloseOver() *Env {
	cp := make([]*Scope, len(e.stack))
	copy(cp, e.stack)
	return &Env{stack: cp}
}

// PushScope enters a new nested scope, inheriting ClassScope from the
// current top of stack (env_push_scope).
func (e *Env) PushScope() *Scope {
	parent := e.Cur()
	s := NewScope()
	if parent != nil {
		s.ClassScope = parent.ClassScope
	}
	e.stack = append(e.stack, s)
	return s
}

// PushScopeRaw attaches an already-built scope (e.g. a class's own static
// scope, or an instance's field scope) without inheriting anything.
func (e *Env) PushScopeRaw(s *Scope) {
	e.stack = append(e.stack, s)
}

// PopScope detaches and returns the current top-of-stack scope.
func (e *Env) PopScope() *Scope {
	n := len(e.stack)
	s := e.stack[n-1]
	e.stack = e.stack[:n-1]
	return s
}

// Cur returns the innermost scope, or nil if the stack is empty.
func (e *Env) Cur() *Scope {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

// Parent returns the scope just below the innermost one, or nil.
func (e *Env) Parent() *Scope {
	if len(e.stack) < 2 {
		return nil
	}
	return e.stack[len(e.stack)-2]
}

// Find walks the stack from innermost to outermost looking for key.
func (e *Env) Find(key string) (*Value, bool) {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if v, ok := e.stack[i].FindVar(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Assign walks the stack looking for an existing binding of key and updates
// it in place, reporting whether one was found.
func (e *Env) Assign(key string, val *Value) bool {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i].SetVar(key, val) {
			return true
		}
	}
	return false
}
