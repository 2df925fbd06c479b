// Package hostlib implements bob's concrete host classes — Cc, Linker,
// PkgConfig, Cargo, Go, Fs, Platform. They register with
// internal/script/hostclass so build.fl's `extern Cc` et al. resolve to
// them, and build-step-shaped classes enqueue work onto a shared
// internal/buildstep.Queue instead of compiling/linking immediately.
package hostlib

import (
	"context"

	"github.com/bobsh/bob/internal/buildstep"
	"github.com/bobsh/bob/internal/cookie"
	"github.com/bobsh/bob/internal/install"
	"github.com/bobsh/bob/internal/logging"
	"github.com/bobsh/bob/internal/script/hostclass"
)

// Toolchain is the shared, per-build-run context every host class needs:
// where to put artifacts, where to enqueue deferred work, and how to log.
type Toolchain struct {
	ProjectDir    string
	OutDir        string
	InstallPrefix string
	InstallMap    *install.Map
	Queue         *buildstep.Queue
	Built         *cookie.BuiltSet
	Log           *logging.Logger
	CC            string // compiler to invoke, defaults to "cc" or $CC
	AR            string // archiver to invoke, defaults to "ar" or $AR
	Workers       int
	CompileDB     *CompileDB // non-nil and Enabled only for the `lsp` instruction
}

func (tc *Toolchain) cc() string {
	if tc.CC != "" {
		return tc.CC
	}
	return "cc"
}

func (tc *Toolchain) ar() string {
	if tc.AR != "" {
		return tc.AR
	}
	return "ar"
}

// RegisterAll registers every host class against reg, bound to tc. Called
// once per orchestrator run: each project gets its own Toolchain and its
// own registry, since bob's output directory and compiler selection are
// per-project.
func RegisterAll(reg *hostclass.Registry, tc *Toolchain) {
	reg.Register("Cc", NewCc(tc))
	reg.Register("Linker", NewLinker(tc))
	reg.Register("PkgConfig", NewPkgConfig())
	reg.Register("Platform", NewPlatform())
	reg.Register("Fs", NewFs())
	reg.Register("Cargo", NewCargo(tc))
	reg.Register("Go", NewGoDriver(tc))
	reg.Register("Dep", NewDep())
}

// ctxTODO supplies a background context wherever a host class needs a
// context.Context: eager calls like PkgConfig, and the build-step runners
// of Cc, Linker, Cargo and Go, since internal/pool.Run does not pass its
// context on to step runners.
func ctxTODO() context.Context { return context.Background() }
