// Package hostbridge adapts internal/script/hostclass.Registry to the
// internal/script/interp.Host interface, so that `extern` declarations in a
// build.fl resolve to registered host classes, and instantiating one either
// calls its constructor directly or enqueues a deferred build step.
package hostbridge

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/hostclass"
	"github.com/bobsh/bob/internal/script/value"
)

// Bridge implements interp.Host against a hostclass.Registry.
type Bridge struct {
	Reg *hostclass.Registry
}

// New creates a Bridge over the global host-class registry.
func New() *Bridge { return &Bridge{Reg: hostclass.Global()} }

// NewWithRegistry creates a Bridge over a caller-supplied registry, used by
// internal/orchestrator so each project build gets its own host-class set
// bound to its own Toolchain rather than sharing the process-global one.
func NewWithRegistry(reg *hostclass.Registry) *Bridge { return &Bridge{Reg: reg} }

// ResolveExtern looks up name in the registry. Function-shaped host classes
// resolve to a directly callable extern value; constructible/build-step
// classes resolve to a class stub whose instantiation is routed back
// through Instantiate.
func (b *Bridge) ResolveExtern(name string) (*value.Value, error) {
	entry, ok := b.Reg.Lookup(name)
	if !ok {
		return nil, berr.New(berr.Host, "unknown extern %q%s", name, suggest(name, b.Reg.Names()))
	}

	if fn, ok := entry.Impl.(hostclass.Func); ok {
		return &value.Value{
			Kind: value.KindFn,
			Name: name,
			Fn:   &value.Fn{FnKind: value.FnExtern, Name: name, Extern: fn.Call},
		}, nil
	}

	return &value.Value{
		Kind: value.KindFn,
		Name: name,
		Fn:   &value.Fn{FnKind: value.FnClass, Name: name},
	}, nil
}

// Names enumerates every registered extern name, letting the loader
// pre-bind host classes when a script imports bob.
func (b *Bridge) Names() []string { return b.Reg.Names() }

// ClassDeclared is a no-op: host classes never go through script-side class
// declaration, and script-declared classes need no host notification.
func (b *Bridge) ClassDeclared(*value.Value) error { return nil }

// Instantiate intercepts instantiation of a class value whose name matches
// a registered host class; everything else falls through to the
// interpreter's default script-class instantiation.
func (b *Bridge) Instantiate(class *value.Value, args []*value.Value) (*value.Value, bool, error) {
	entry, ok := b.Reg.Lookup(class.Fn.Name)
	if !ok {
		return nil, false, nil
	}

	if enq, ok := entry.Impl.(hostclass.BuildStepEnqueuer); ok {
		v, err := enq.Enqueue(args)
		return v, true, err
	}
	if ctor, ok := entry.Impl.(hostclass.Constructor); ok {
		v, err := ctor.New(args)
		return v, true, err
	}
	return nil, true, berr.New(berr.Host, "%q is not constructible", class.Fn.Name)
}

func suggest(name string, candidates []string) string {
	matches := fuzzy.RankFindFold(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	sortRanks(matches)
	return " (did you mean " + strings.Join(topNames(matches, 3), ", ") + "?)"
}

func sortRanks(r fuzzy.Ranks) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j].Distance < r[j-1].Distance; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
}

func topNames(r fuzzy.Ranks, n int) []string {
	if len(r) < n {
		n = len(r)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = r[i].Target
	}
	return names
}
