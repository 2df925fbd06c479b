// Package loader resolves and runs a build.fl's `import` statements, the
// module-load-time phase internal/script/interp explicitly defers (its
// ImportStmt case is a no-op by design). Relative imports resolve against
// the importing file's directory; non-relative imports search a
// configurable list of import directories in order. An imported program
// shares the importer's top-level environment, so its top-level bindings
// are visible to the importer.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/interp"
	"github.com/bobsh/bob/internal/script/parser"
	"github.com/bobsh/bob/internal/script/value"
)

// bobModule is the well-known marker import every build.fl must carry.
// It resolves to no file; it is the host's own confirmation that this
// program is a bob build script, and importing it declares the
// well-known top-level variables.
const bobModule = "bob"

// Loader loads and runs a build.fl and every file it transitively imports,
// sharing one interpreter environment across all of them.
type Loader struct {
	ImportDirs []string
	Host       interp.Host
	loaded     map[string]bool
	sawBob     bool
}

// New creates a Loader searching ImportDirs for non-relative imports.
func New(host interp.Host, importDirs []string) *Loader {
	return &Loader{Host: host, ImportDirs: importDirs, loaded: map[string]bool{}}
}

// Run loads entryPath and every file it imports (transitively) into one
// shared interpreter, then runs entryPath's own top-level statements last,
// so imports fully execute before the importer's code sees their
// bindings.
func (l *Loader) Run(entryPath string) (*interp.Interp, error) {
	in := interp.New(l.Host)
	if err := l.load(in, entryPath); err != nil {
		return nil, err
	}
	if !l.sawBob {
		return nil, fmt.Errorf("%s: missing required `import bob`", entryPath)
	}
	return in, nil
}

func (l *Loader) load(in *interp.Interp, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if l.loaded[abs] {
		return nil
	}
	l.loaded[abs] = true

	src, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading %s: %w", abs, err)
	}

	prog, errs := parser.Parse(src)
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", abs, joinErrors(errs))
	}

	dir := filepath.Dir(abs)
	for _, stmt := range prog.Stmts {
		imp, ok := stmt.(*ast.ImportStmt)
		if !ok {
			continue
		}
		if len(imp.Path) == 1 && imp.Path[0] == bobModule {
			if !l.sawBob {
				l.sawBob = true
				l.declareWellKnown(in)
			}
			continue
		}
		target, err := l.resolve(imp.Path, dir)
		if err != nil {
			return fmt.Errorf("%s: %w", imp.Pos(), err)
		}
		if err := l.load(in, target); err != nil {
			return err
		}
	}

	return in.Run(prog)
}

// externLister is implemented by hosts that can enumerate their registered
// extern names (hostbridge.Bridge), letting `import bob` pre-bind every
// host class so scripts can write `Cc([...])` without an explicit
// `extern Cc` line first.
type externLister interface {
	Names() []string
}

// declareWellKnown is what `import bob` actually does: it declares the
// well-known top-level variables the orchestrator reads back after the
// script runs (deps, install, run), all initialized to none so a script
// may assign any kind (or leave them alone), and binds every
// host-registered class the host can enumerate.
func (l *Loader) declareWellKnown(in *interp.Interp) {
	for _, name := range []string{"deps", "install", "run"} {
		in.Env.Cur().AddVar(name, &value.Value{Kind: value.KindNone, Name: name})
	}
	lister, ok := l.Host.(externLister)
	if !ok {
		return
	}
	for _, name := range lister.Names() {
		fn, err := in.Host.ResolveExtern(name)
		if err != nil {
			continue
		}
		fn.Name = name
		in.Env.Cur().AddVar(name, fn)
	}
}

// resolve turns a dotted import path into a file, trying the importing
// file's own directory first (relative import) and falling back to the
// configured search path in order (non-relative import).
func (l *Loader) resolve(path []string, fromDir string) (string, error) {
	rel := filepath.Join(path...) + ".fl"

	candidate := filepath.Join(fromDir, rel)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	for _, dir := range l.ImportDirs {
		candidate = filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("cannot find import %q: not in %s or any import directory", strings.Join(path, "."), fromDir)
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
