package hostlib

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/value"
)

// Fs is bob's filesystem-introspection host class: `.list(path)` walks a
// directory tree in alphabetical order, `.exists(path)` is a plain stat
// check. Neither enqueues a build step — both run eagerly from
// interpreter context, since they only read the filesystem.
type Fs struct{}

// NewFs builds the Fs host class.
func NewFs() *Fs { return &Fs{} }

// New implements hostclass.Constructor: `extern Fs; var fs = Fs()`.
func (f *Fs) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Fs: didn't expect any arguments, got %d", len(args))
	}
	scope := value.NewScope()
	scope.AddVar("list", externMethod("list", f.list))
	scope.AddVar("exists", externMethod("exists", f.exists))
	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func (f *Fs) list(args []*value.Value) (*value.Value, error) {
	path, err := oneStringArg(args, "Fs.list")
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == path && d.IsDir() {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, berr.Wrap(berr.Host, err, "Fs.list: walking %q", path)
	}
	sort.Strings(paths)

	return value.NewVec(stringVec(paths)), nil
}

func (f *Fs) exists(args []*value.Value) (*value.Value, error) {
	path, err := oneStringArg(args, "Fs.exists")
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	return value.NewBool(statErr == nil), nil
}

func oneStringArg(args []*value.Value, who string) (string, error) {
	if len(args) != 1 {
		return "", berr.New(berr.Script, "%s: expected 1 argument, got %d", who, len(args))
	}
	if args[0].Kind != value.KindString {
		return "", berr.New(berr.Script, "%s: expected a string argument, got %s", who, args[0].TypeStr())
	}
	return args[0].Str, nil
}
