package hostlib

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/proc"
	"github.com/bobsh/bob/internal/script/value"
)

// PkgConfig is bob's pkg-config host class: `.cflags(module)` and
// `.libs(module)` shell out to `pkg-config --cflags`/`--libs` and split
// the result into a vector of tokens on whitespace. `.requires(module,
// constraint)` uses golang.org/x/mod/semver to check a version constraint
// against `pkg-config --modversion` instead of re-implementing
// pkg-config's own (more complete but unexported) version comparator.
type PkgConfig struct{}

// NewPkgConfig builds the PkgConfig host class.
func NewPkgConfig() *PkgConfig { return &PkgConfig{} }

// New implements hostclass.Constructor: `extern PkgConfig; var pc = PkgConfig()`.
func (p *PkgConfig) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "PkgConfig: didn't expect any arguments, got %d", len(args))
	}
	scope := value.NewScope()
	scope.AddVar("cflags", externMethod("cflags", p.run("--cflags")))
	scope.AddVar("libs", externMethod("libs", p.run("--libs")))
	scope.AddVar("requires", externMethod("requires", p.requires))
	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func (p *PkgConfig) run(flag string) func([]*value.Value) (*value.Value, error) {
	return func(args []*value.Value) (*value.Value, error) {
		module, err := oneStringArg(args, "PkgConfig."+flagName(flag))
		if err != nil {
			return nil, err
		}
		tokens, err := pkgConfigRun(flag, module)
		if err != nil {
			return nil, err
		}
		return value.NewVec(stringVec(tokens)), nil
	}
}

func (p *PkgConfig) requires(args []*value.Value) (*value.Value, error) {
	if len(args) != 2 {
		return nil, berr.New(berr.Script, "PkgConfig.requires: expected 2 arguments (module, constraint), got %d", len(args))
	}
	if args[0].Kind != value.KindString || args[1].Kind != value.KindString {
		return nil, berr.New(berr.Script, "PkgConfig.requires: expected two strings")
	}
	module, constraint := args[0].Str, args[1].Str

	tokens, err := pkgConfigRun("--modversion", module)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return value.NewBool(false), nil
	}

	ok, err := checkSemverConstraint(tokens[0], constraint)
	if err != nil {
		return nil, err
	}
	return value.NewBool(ok), nil
}

// checkSemverConstraint supports "<op><version>" constraints (>=, <=, >,
// <, ==) using golang.org/x/mod/semver, which requires a leading "v" on
// both sides since pkg-config module versions rarely carry one.
func checkSemverConstraint(version, constraint string) (bool, error) {
	op, want := splitConstraint(constraint)
	have := "v" + strings.TrimPrefix(version, "v")
	want = "v" + strings.TrimPrefix(want, "v")

	if !semver.IsValid(have) || !semver.IsValid(want) {
		return false, berr.New(berr.Host, "pkg-config: cannot compare versions %q and %q as semver", version, constraint)
	}

	cmp := semver.Compare(have, want)
	switch op {
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case "==", "=", "":
		return cmp == 0, nil
	default:
		return false, berr.New(berr.Script, "pkg-config: unknown constraint operator %q", op)
	}
}

func splitConstraint(c string) (op, version string) {
	for _, candidate := range []string{">=", "<=", "==", ">", "<", "="} {
		if strings.HasPrefix(c, candidate) {
			return candidate, strings.TrimSpace(strings.TrimPrefix(c, candidate))
		}
	}
	return "", strings.TrimSpace(c)
}

func pkgConfigRun(flag, module string) ([]string, error) {
	if err := requireTool("pkg-config"); err != nil {
		return nil, err
	}
	res, err := proc.Run(ctxTODO(), "", "pkg-config", flag, module)
	if err != nil {
		return nil, berr.Wrap(berr.Host, err, "pkg-config %s %s failed: %s", flag, module, res.Output)
	}
	return splitFields(res.Output), nil
}

func flagName(flag string) string {
	switch flag {
	case "--cflags":
		return "cflags"
	case "--libs":
		return "libs"
	default:
		return strconv.Quote(flag)
	}
}
