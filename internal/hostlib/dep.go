package hostlib

import (
	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/value"
)

// Dep is bob's dependency-declaration host class: the script populates a
// top-level vector named deps with Dep instances carrying {kind,
// local_path?, git_url?, git_branch?}. Unlike Cc/Linker, Dep does no work
// itself — it's a passive data carrier internal/orchestrator reads back
// out via Fields after the script runs, converting each instance into a
// deptree.Spec.
type Dep struct{}

// NewDep builds the Dep host class.
func NewDep() *Dep { return &Dep{} }

// New implements hostclass.Constructor:
// `extern Dep; var d = Dep({kind: "local", local_path: "../foo"})`.
func (d *Dep) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.KindMap {
		return nil, berr.New(berr.Script, "Dep: expected a single map argument of {kind, local_path?, git_url?, git_branch?}")
	}

	scope := value.NewScope()
	for _, e := range args[0].Map {
		if e.Key.Kind != value.KindString {
			return nil, berr.New(berr.Script, "Dep: map keys must be strings")
		}
		scope.AddVar(e.Key.Str, e.Val)
	}

	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

// Fields reads kind/local_path/git_url/git_branch back off a Dep instance,
// returning empty strings for any field that wasn't set.
func Fields(dep *value.Value) (kind, localPath, gitURL, gitBranch string, err error) {
	if dep.Kind != value.KindInstance {
		return "", "", "", "", berr.New(berr.Script, "deps vector element is not a Dep instance, got %s", dep.TypeStr())
	}
	get := func(name string) string {
		v, ok := dep.Inst.Scope.FindVar(name)
		if !ok || v.Kind != value.KindString {
			return ""
		}
		return v.Str
	}
	kind = get("kind")
	if kind != "local" && kind != "git" {
		return "", "", "", "", berr.New(berr.Script, "Dep.kind must be \"local\" or \"git\", got %q", kind)
	}
	return kind, get("local_path"), get("git_url"), get("git_branch"), nil
}
