package hostlib

import (
	"fmt"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/cookie"
	"github.com/bobsh/bob/internal/install"
	"github.com/bobsh/bob/internal/pool"
	"github.com/bobsh/bob/internal/proc"
	"github.com/bobsh/bob/internal/script/value"
)

// Cc is bob's C/C++ compiler host class: instantiated with a vector of
// compiler flags, `.compile(srcs)` generates one object-file cookie per source
// (internal/cookie.Path), enqueues a compile build step carrying every
// source, and returns the cookie vector to the script. When the step runs,
// each source goes through the frugality checks (flags-file diff, mtime,
// and a `.deps` include-dependency sidecar produced by `cc -MM`) and only
// the sources that fail them are recompiled.
type Cc struct {
	tc *Toolchain
}

// NewCc builds the Cc host class bound to tc.
func NewCc(tc *Toolchain) *Cc { return &Cc{tc: tc} }

// New implements hostclass.Constructor: `extern Cc; var c = Cc([flags])`.
func (c *Cc) New(args []*value.Value) (*value.Value, error) {
	var flags []string
	if len(args) >= 1 {
		if args[0].Kind != value.KindVec {
			return nil, berr.New(berr.Script, "Cc: expected a vector of flags, got %s", args[0].TypeStr())
		}
		for _, f := range args[0].Vec {
			if f.Kind != value.KindString {
				return nil, berr.New(berr.Script, "Cc: flags must be strings")
			}
			flags = append(flags, f.Str)
		}
	}

	scope := value.NewScope()
	scope.AddVar("flags", value.NewVec(stringVec(flags)))
	scope.AddVar("compile", externMethod("compile", c.compile(flags)))

	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

// compile returns the bound `.compile(srcs)` extern implementation, closing
// over this Cc instance's flags. It generates and returns an output cookie
// for every source rather than accepting one.
func (c *Cc) compile(flags []string) func(args []*value.Value) (*value.Value, error) {
	return func(args []*value.Value) (*value.Value, error) {
		if len(args) != 1 {
			return nil, berr.New(berr.Script, "Cc.compile: expected 1 argument, got %d", len(args))
		}
		if args[0].Kind != value.KindVec {
			return nil, berr.New(berr.Script, "Cc.compile: expected a vector of source paths")
		}

		var srcs, outs []string
		for i, s := range args[0].Vec {
			if s.Kind != value.KindString {
				return nil, berr.New(berr.Script, "Cc.compile: expected %d-th vector element to be a string", i)
			}
			srcs = append(srcs, s.Str)
			outs = append(outs, cookie.Path(c.tc.OutDir, s.Str, "o"))
		}

		// Same compiler/flag combination merges into one build step.
		c.tc.Queue.Add(hashKey("Cc.compile", c.tc.cc(), flags), "Cc.compile", c.compileStep(flags), compileJob{srcs: srcs, outs: outs})
		return value.NewVec(stringVec(outs)), nil
	}
}

type compileJob struct {
	srcs, outs []string
}

func (c *Cc) compileStep(flags []string) func(data []any) error {
	return func(data []any) error {
		type task struct{ src, out string }
		var tasks []task
		for _, d := range data {
			job := d.(compileJob)
			for i := range job.srcs {
				tasks = append(tasks, task{src: job.srcs[i], out: job.outs[i]})
			}
		}

		genLSP := c.tc.CompileDB != nil && c.tc.CompileDB.Enabled

		// Each source is its own independent task (include-deps computation,
		// compilation, cookie install), fanned out across the worker pool.
		return pool.ForEach(ctxTODO(), c.tc.Workers, len(tasks), func(i int) error {
			t := tasks[i]
			args := append([]string{"-fdiagnostics-color=always", "-c", t.src, "-o", t.out}, flags...)
			c.tc.CompileDB.Add(CompileDBEntry{Directory: c.tc.ProjectDir, File: t.src, Arguments: append([]string{c.tc.cc()}, args...)})

			changed, err := cookie.FlagsChanged(flags, t.out)
			if err != nil {
				return err
			}

			deps := []string{t.src}
			if prev, ok := cookie.ReadIncludeDeps(t.out); ok {
				deps = append(deps, prev...)
			}

			needsBuild := changed || genLSP
			if !needsBuild {
				needsBuild, err = cookie.NeedsRebuild(deps, t.out)
				if err != nil {
					return err
				}
			}
			if !needsBuild {
				c.tc.Log.AlreadyDone(t.src, "compiled", cookie.ReadLog(t.out))
				return install.Cookie(t.out, c.tc.ProjectDir, c.tc.InstallPrefix, c.tc.InstallMap, false)
			}

			c.tc.Log.Info("%s: compiling...", t.src)

			headers, err := c.includeDeps(t.src, flags)
			if err != nil {
				c.tc.Log.Warn("%s: couldn't determine include dependencies: %s", t.src, err)
			} else if err := cookie.WriteIncludeDeps(t.out, headers); err != nil {
				return err
			}

			res, err := proc.Run(ctxTODO(), c.tc.ProjectDir, c.tc.cc(), args...)
			if err != nil {
				c.tc.Log.Fatal("%s", res.Output)
				return berr.Wrap(berr.System, err, "compiling %s", t.src)
			}
			if err := cookie.WriteLog(t.out, res.Output); err != nil {
				c.tc.Log.Warn("%s: couldn't persist build log: %s", t.src, err)
			}
			c.tc.Log.Success("%s: compiled.", t.src)
			c.tc.Built.Add(t.out)
			return install.Cookie(t.out, c.tc.ProjectDir, c.tc.InstallPrefix, c.tc.InstallMap, false)
		})
	}
}

func (c *Cc) includeDeps(src string, flags []string) ([]string, error) {
	args := append([]string{"-MM", "-MT", "", src}, flags...)
	res, err := proc.Run(ctxTODO(), c.tc.ProjectDir, c.tc.cc(), args...)
	if err != nil {
		return nil, err
	}
	return parseMakeDeps(res.Output), nil
}

// parseMakeDeps extracts header paths out of `cc -MM -MT ""` Makefile-rule
// output by splitting on whitespace and dropping rule punctuation.
func parseMakeDeps(out string) []string {
	var headers []string
	for _, tok := range splitFields(out) {
		if tok == "" || tok == ":" || tok == "\\" {
			continue
		}
		headers = append(headers, tok)
	}
	return headers
}

func splitFields(s string) []string {
	var fields []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			fields = append(fields, string(cur))
			cur = nil
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\t':
			flush()
		default:
			cur = append(cur, s[i])
		}
	}
	flush()
	return fields
}

func stringVec(ss []string) []*value.Value {
	out := make([]*value.Value, len(ss))
	for i, s := range ss {
		out[i] = value.NewString(s)
	}
	return out
}

func externMethod(name string, fn func([]*value.Value) (*value.Value, error)) *value.Value {
	return &value.Value{
		Kind: value.KindFn,
		Name: name,
		Fn:   &value.Fn{FnKind: value.FnPrimitiveMember, Name: name, Extern: fn},
	}
}

// hashKey derives a build-step merge key from a compiler/flags combination,
// so consecutive .compile() calls sharing the exact same compiler and flags
// collapse into a single batched build step.
func hashKey(parts ...any) uint64 {
	h := uint64(fnvOffset)
	for _, p := range parts {
		for _, b := range []byte(fmt.Sprint(p)) {
			h ^= uint64(b)
			h *= fnvPrime
		}
	}
	return h
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)
