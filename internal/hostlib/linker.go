package hostlib

import (
	"fmt"
	"path/filepath"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/cookie"
	"github.com/bobsh/bob/internal/install"
	"github.com/bobsh/bob/internal/proc"
	"github.com/bobsh/bob/internal/script/value"
)

// Linker is bob's link/archive host class: `.link(srcs)` and `.archive(srcs)`
// both return a cookie immediately (hash of the xor'd source hashes, so
// order never matters) and enqueue a build step keyed by that output
// cookie, so steps for different source sets are never merged; consecutive
// calls with the same source set merge into one step that runs each job.
type Linker struct {
	tc *Toolchain
}

// NewLinker builds the Linker host class bound to tc.
func NewLinker(tc *Toolchain) *Linker { return &Linker{tc: tc} }

// New implements hostclass.Constructor: `extern Linker; var l = Linker([flags])`.
func (l *Linker) New(args []*value.Value) (*value.Value, error) {
	flags, err := flagsArg(args, "Linker")
	if err != nil {
		return nil, err
	}

	scope := value.NewScope()
	scope.AddVar("flags", value.NewVec(stringVec(flags)))
	scope.AddVar("link", externMethod("link", l.prepLink(flags, false)))
	scope.AddVar("archive", externMethod("archive", l.prepLink(flags, true)))

	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func flagsArg(args []*value.Value, who string) ([]string, error) {
	if len(args) != 1 {
		return nil, berr.New(berr.Script, "%s: expected 1 argument, got %d", who, len(args))
	}
	if args[0].Kind != value.KindVec {
		return nil, berr.New(berr.Script, "%s: expected a vector of flags", who)
	}
	var flags []string
	for i, f := range args[0].Vec {
		if f.Kind != value.KindString {
			return nil, berr.New(berr.Script, "%s: expected %d-th vector element to be a string", who, i)
		}
		flags = append(flags, f.Str)
	}
	return flags, nil
}

type linkJob struct {
	srcs []string
	out  string
}

func (l *Linker) prepLink(flags []string, archive bool) func([]*value.Value) (*value.Value, error) {
	return func(args []*value.Value) (*value.Value, error) {
		who := "Linker.link"
		if archive {
			who = "Linker.archive"
		}
		if len(args) != 1 {
			return nil, berr.New(berr.Script, "%s: expected 1 argument, got %d", who, len(args))
		}
		if args[0].Kind != value.KindVec {
			return nil, berr.New(berr.Script, "%s: expected a vector", who)
		}

		var srcs []string
		var totalHash uint64
		for i, s := range args[0].Vec {
			if s.Kind != value.KindString {
				return nil, berr.New(berr.Script, "%s: expected %d-th vector element to be a string", who, i)
			}
			srcs = append(srcs, s.Str)
			totalHash ^= strHash(s.Str)
		}

		ext := "l"
		infinitive := "link"
		if archive {
			ext = "a"
			infinitive = "archive"
		}
		out := filepath.Join(l.tc.OutDir, "bob", fmt.Sprintf("linker.%s.cookie.%x.%s", infinitive, totalHash, ext))

		// The unique key folds in the output path itself, so only
		// consecutive calls producing the same cookie merge.
		l.tc.Queue.Add(hashKey("Linker", infinitive, out), infinitive, l.linkStep(flags, archive), linkJob{srcs: srcs, out: out})
		return value.NewString(out), nil
	}
}

func (l *Linker) linkStep(flags []string, archive bool) func(data []any) error {
	return func(data []any) error {
		for _, d := range data {
			job := d.(linkJob)
			if err := l.runLink(job, flags, archive); err != nil {
				return err
			}
		}
		return nil
	}
}

func (l *Linker) runLink(job linkJob, flags []string, archive bool) error {
	verb, past := "Linking", "linked"
	if archive {
		verb, past = "Archiving", "archived"
	}

	flagsChanged, err := cookie.FlagsChanged(flags, job.out)
	if err != nil {
		return err
	}

	// Relink whenever any input cookie was rebuilt during this run, even
	// if mtimes alone would have let the link artifact stand.
	relinkForStaticDep := false
	for _, src := range job.srcs {
		if l.tc.Built.Has(src) {
			relinkForStaticDep = true
			break
		}
	}

	needsBuild := flagsChanged || relinkForStaticDep
	if !needsBuild {
		needsBuild, err = cookie.NeedsRebuild(job.srcs, job.out)
		if err != nil {
			return err
		}
	}
	if !needsBuild {
		l.tc.Log.AlreadyDone(job.out, past, cookie.ReadLog(job.out))
		return install.Cookie(job.out, l.tc.ProjectDir, l.tc.InstallPrefix, l.tc.InstallMap, false)
	}

	l.tc.Log.Info("%s...", verb)

	var args []string
	var tool string
	if archive {
		tool = l.tc.ar()
		args = append([]string{"-rcs", job.out}, job.srcs...)
	} else {
		tool = l.tc.cc()
		args = append([]string{"-fdiagnostics-color=always", "-o", job.out}, job.srcs...)
		if l.tc.InstallPrefix != "" {
			args = append(args, "-L"+filepath.Join(l.tc.InstallPrefix, "lib"))
		}
		args = append(args, flags...)
	}

	res, err := proc.Run(ctxTODO(), l.tc.ProjectDir, tool, args...)
	if err != nil {
		l.tc.Log.Fatal("%s", res.Output)
		return berr.Wrap(berr.System, err, "%s failed", verb)
	}
	if err := cookie.WriteLog(job.out, res.Output); err != nil {
		l.tc.Log.Warn("%s: couldn't persist build log: %s", job.out, err)
	}
	l.tc.Log.Success("%s.", past)
	l.tc.Built.Add(job.out)
	return install.Cookie(job.out, l.tc.ProjectDir, l.tc.InstallPrefix, l.tc.InstallMap, false)
}

// strHash is a byte-level hash whose per-source results are xored
// together, so a link cookie's name is order-independent in its inputs.
func strHash(s string) uint64 {
	h := uint64(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}
