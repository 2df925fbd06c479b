package hostlib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/install"
	"github.com/bobsh/bob/internal/proc"
	"github.com/bobsh/bob/internal/script/value"
)

// GoDriver is bob's Go build driver host class: `.build(flags)` augments
// CGO_CFLAGS/CGO_LDFLAGS to point at the install prefix's include/lib
// directories, shells out to `go build`, and installs the resulting
// binary cookie directly with the executable bit set.
type GoDriver struct {
	tc *Toolchain
}

// NewGoDriver builds the Go host class bound to tc.
func NewGoDriver(tc *Toolchain) *GoDriver { return &GoDriver{tc: tc} }

// New implements hostclass.Constructor: `extern Go; var g = Go()`.
func (g *GoDriver) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Go: didn't expect any arguments, got %d", len(args))
	}
	scope := value.NewScope()
	scope.AddVar("build", externMethod("build", g.build))
	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func (g *GoDriver) build(args []*value.Value) (*value.Value, error) {
	flags, err := flagsArg(args, "Go.build")
	if err != nil {
		return nil, err
	}

	if err := requireTool("go"); err != nil {
		return nil, err
	}

	out := filepath.Join(g.tc.OutDir, "go.build.cookie.exe")
	g.tc.Queue.Add(hashKey("Go.build"), "Go build", g.buildStep(flags, out), struct{}{})
	return value.NewString(out), nil
}

func (g *GoDriver) buildStep(flags []string, out string) func(data []any) error {
	return func(data []any) error {
		if len(data) != 1 {
			return berr.New(berr.Script, "Go.build can't be called more than once (was called %d times)", len(data))
		}

		prefix := g.tc.InstallPrefix
		augmentEnv("CGO_CFLAGS", "-I", filepath.Join(prefix, "include"))
		augmentEnv("CGO_LDFLAGS", "-L", filepath.Join(prefix, "lib"))

		g.tc.Log.Info("Go: building...")
		args := append([]string{"build", "-o", out}, flags...)
		res, err := proc.Run(ctxTODO(), g.tc.ProjectDir, "go", args...)
		if err != nil {
			g.tc.Log.Fatal("%s", res.Output)
			return berr.Wrap(berr.System, err, "go build failed")
		}
		g.tc.Log.Success("Go project: built.")
		return install.Cookie(out, g.tc.ProjectDir, prefix, g.tc.InstallMap, true)
	}
}

// augmentEnv appends " <flag><value>" to the existing value of key, so a
// build.fl's own CGO_CFLAGS/CGO_LDFLAGS aren't clobbered, only extended.
func augmentEnv(key, flag, value string) {
	cur := os.Getenv(key)
	next := fmt.Sprintf("%s%s", flag, value)
	if cur != "" {
		next = cur + " " + next
	}
	os.Setenv(key, next)
}
