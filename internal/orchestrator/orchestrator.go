// Package orchestrator drives bob's build phases end to end
// (IDENTIFY -> SETUP -> DEPS -> BUILD -> INSTALL -> (RUN)), tying together
// internal/script/loader, internal/script/hostbridge, internal/hostlib,
// internal/buildstep+internal/pool, internal/deptree and internal/install.
package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/buildstep"
	"github.com/bobsh/bob/internal/config"
	"github.com/bobsh/bob/internal/cookie"
	"github.com/bobsh/bob/internal/deptree"
	"github.com/bobsh/bob/internal/hostlib"
	"github.com/bobsh/bob/internal/install"
	"github.com/bobsh/bob/internal/logging"
	"github.com/bobsh/bob/internal/pool"
	"github.com/bobsh/bob/internal/script/hostbridge"
	"github.com/bobsh/bob/internal/script/hostclass"
	"github.com/bobsh/bob/internal/script/interp"
	"github.com/bobsh/bob/internal/script/loader"
	"github.com/bobsh/bob/internal/script/value"
)

// BuildFile is the well-known entry-point script name every project root
// must contain.
const BuildFile = "build.fl"

// Config holds everything the CLI layer (cmd/bob) gathers from flags,
// bob.toml, and the environment before handing off to a Project.
type Config struct {
	ProjectDir       string
	OutDir           string
	Prefix           string // install prefix; defaults to <out-dir>/prefix
	Workers          int
	DisableDeps      bool // -D: skip the DEPS phase, build only this project
	Force            bool // -f: ignore dependency-tree cache, re-resolve
	AssertOwnsPrefix bool // -O: assert the invoking user owns Prefix
	NoColor          bool
	ImportDirs       []string
	DepsRoot         string // BOB_DEPS_PATH override; "" means <out>/../.bob-deps
	Log              *logging.Logger

	depsRootSet bool
	workersSet  bool
}

// Project is one bob invocation's resolved state: a project directory, its
// output directory, and the Toolchain/Log every phase shares.
type Project struct {
	cfg Config
	tc  *hostlib.Toolchain
}

// New resolves cfg's defaults (working directory, out/prefix layout,
// compiler selection from $CC/$AR, bob.toml overrides) into a
// ready-to-run Project.
func New(cfg Config) (*Project, error) {
	if cfg.Workers > 0 {
		cfg.workersSet = true
	}
	if cfg.DepsRoot != "" {
		cfg.depsRootSet = true
	}

	if cfg.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, berr.Wrap(berr.System, err, "resolving working directory")
		}
		cfg.ProjectDir = wd
	}
	abs, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return nil, berr.Wrap(berr.System, err, "resolving project directory %q", cfg.ProjectDir)
	}
	cfg.ProjectDir = abs

	if manifest, ok, err := config.Load(cfg.ProjectDir); err != nil {
		return nil, err
	} else if ok {
		manifest.ApplyDefaults(&cfg.DepsRoot, cfg.depsRootSet, &cfg.Workers, cfg.workersSet, &cfg.ImportDirs)
	}

	if cfg.OutDir == "" {
		cfg.OutDir = filepath.Join(cfg.ProjectDir, "out")
	}
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(cfg.ProjectDir, cfg.OutDir)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = filepath.Join(cfg.OutDir, "prefix")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if envDeps := os.Getenv("BOB_DEPS_PATH"); envDeps != "" {
		cfg.DepsRoot = envDeps // env always wins over flags and manifest
	}
	if cfg.DepsRoot == "" {
		cfg.DepsRoot = filepath.Join(cfg.OutDir, "..", ".bob-deps")
	}
	if cfg.Log == nil {
		cfg.Log = logging.New(os.Stdout, os.Stderr)
	}
	if cfg.NoColor {
		cfg.Log.SetColor(false)
	}

	if err := os.MkdirAll(filepath.Join(cfg.OutDir, "bob"), 0o755); err != nil {
		return nil, berr.Wrap(berr.System, err, "creating output directory")
	}

	if cfg.AssertOwnsPrefix {
		if err := assertOwnsPrefix(cfg.Prefix); err != nil {
			return nil, err
		}
	}

	p := &Project{cfg: cfg}
	p.tc = &hostlib.Toolchain{
		ProjectDir:    cfg.ProjectDir,
		OutDir:        cfg.OutDir,
		InstallPrefix: cfg.Prefix,
		Queue:         buildstep.NewQueue(),
		Built:         cookie.NewBuiltSet(),
		Log:           cfg.Log,
		CC:            os.Getenv("CC"),
		AR:            os.Getenv("AR"),
		Workers:       cfg.Workers,
	}
	return p, nil
}

// assertOwnsPrefix implements `-O`: a recursive dependency-build
// invocation asserts the invoking user owns the install prefix directory
// before writing into it.
func assertOwnsPrefix(prefix string) error {
	info, err := os.Stat(prefix)
	if os.IsNotExist(err) {
		return nil // nothing to own yet; it'll be created fresh
	}
	if err != nil {
		return berr.Wrap(berr.System, err, "stat %s", prefix)
	}
	return install.CheckOwner(prefix, info)
}

// buildFilePath returns the entry script's absolute path, erroring if the
// project directory doesn't have one.
func (p *Project) buildFilePath() (string, error) {
	path := filepath.Join(p.cfg.ProjectDir, BuildFile)
	if _, err := os.Stat(path); err != nil {
		return "", berr.New(berr.Script, "%s does not exist in %s", BuildFile, p.cfg.ProjectDir)
	}
	return path, nil
}

// newBridge builds a per-project host-class registry (so two concurrently
// running Projects never share compiler state) and the hostbridge.Bridge
// wrapping it.
func (p *Project) newBridge() *hostbridge.Bridge {
	reg := hostclass.NewRegistry()
	hostlib.RegisterAll(reg, p.tc)
	return hostbridge.NewWithRegistry(reg)
}

// runScript is the IDENTIFY+SETUP phase: locate build.fl, register host
// classes against a registry bound to this project's Toolchain, and run
// every top-level statement (including transitively imported files) to
// completion. The returned Interp's root Env holds whatever well-known
// top-level variables (deps, install, run) the script declared.
func (p *Project) runScript() (*interp.Interp, error) {
	entry, err := p.buildFilePath()
	if err != nil {
		return nil, err
	}

	ld := loader.New(p.newBridge(), p.cfg.ImportDirs)
	in, err := ld.Run(entry)
	if err != nil {
		return nil, berr.Wrap(berr.Script, err, "running %s", entry)
	}
	return in, nil
}

// ReadOwnDeps runs just enough of IDENTIFY+SETUP to read back this
// project's declared `deps` vector, used by the `dep-tree` CLI instruction
// (internal/deptree.HandleDepTreeInstruction's readSpecs callback) without
// driving the rest of the build.
func (p *Project) ReadOwnDeps() ([]deptree.Spec, error) {
	in, err := p.runScript()
	if err != nil {
		return nil, err
	}
	return readDeps(in)
}

// readDeps pulls the well-known `deps` vector out of in's
// root environment and converts each Dep instance to a deptree.Spec. A
// missing `deps` binding means no dependencies, not an error.
func readDeps(in *interp.Interp) ([]deptree.Spec, error) {
	v, ok := in.Env.Find("deps")
	if !ok || v.Kind == value.KindNone {
		return nil, nil
	}
	if v.Kind != value.KindVec {
		return nil, berr.New(berr.Script, "top-level 'deps' must be a vector, got %s", v.TypeStr())
	}

	specs := make([]deptree.Spec, 0, len(v.Vec))
	for _, d := range v.Vec {
		kind, localPath, gitURL, gitBranch, err := hostlib.Fields(d)
		if err != nil {
			return nil, err
		}
		spec := deptree.Spec{LocalPath: localPath, GitURL: gitURL, GitBranch: gitBranch}
		if kind == "local" {
			spec.Kind = deptree.KindLocal
		} else {
			spec.Kind = deptree.KindGit
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// readInstallMap pulls the well-known `install` map out of in's root
// environment.
func readInstallMap(in *interp.Interp) (*install.Map, error) {
	v, _ := in.Env.Find("install")
	m, ok, err := install.FromValue(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &install.Map{}, nil
	}
	return m, nil
}

// readRunCmd pulls the well-known `run` vector out of in's
// root environment, reporting ok=false if the script declared none.
func readRunCmd(in *interp.Interp) (argv []string, ok bool, err error) {
	v, found := in.Env.Find("run")
	if !found || v.Kind == value.KindNone {
		return nil, false, nil
	}
	if v.Kind != value.KindVec {
		return nil, false, berr.New(berr.Script, "top-level 'run' must be a vector or none, got %s", v.TypeStr())
	}
	for i, e := range v.Vec {
		if e.Kind != value.KindString {
			return nil, false, berr.New(berr.Script, "top-level 'run': element %d is not a string", i)
		}
		argv = append(argv, e.Str)
	}
	return argv, true, nil
}

// BuildMode selects a variant of the BUILD phase.
type BuildMode int

const (
	// ModeBuild is a plain `build` instruction.
	ModeBuild BuildMode = iota
	// ModeLSP additionally emits a compile database for editor tooling.
	ModeLSP
)

// Result is everything a completed Build leaves behind for Install/Run to
// use, and for the CLI to report.
type Result struct {
	Interp     *interp.Interp
	InstallMap *install.Map
	RunArgv    []string
	HasRun     bool
	CompileDB  []hostlib.CompileDBEntry
}

// Build drives IDENTIFY -> SETUP -> DEPS -> BUILD, stopping
// before INSTALL. The build.fl runs exactly once: the resulting Interp
// serves both the deps read and the build itself, so build steps are
// enqueued once and script side effects happen once. Dependencies are
// resolved and recursively built before the queued steps run (unless
// cfg.DisableDeps), since a dependency's headers/libraries may be
// required by this project's own compile/link steps.
func (p *Project) Build(ctx context.Context, mode BuildMode) (*Result, error) {
	if mode == ModeLSP {
		p.tc.CompileDB = &hostlib.CompileDB{Enabled: true}
	}

	in, err := p.runScript()
	if err != nil {
		return nil, err
	}

	if !p.cfg.DisableDeps {
		if err := p.buildDeps(ctx, in); err != nil {
			return nil, err
		}
	}

	installMap, err := readInstallMap(in)
	if err != nil {
		return nil, err
	}
	p.tc.InstallMap = installMap

	runArgv, hasRun, err := readRunCmd(in)
	if err != nil {
		return nil, err
	}

	if p.tc.Queue.Len() == 0 {
		p.cfg.Log.Warn("no build steps were queued")
	}
	if err := pool.Run(ctx, p.tc.Queue, p.cfg.Workers); err != nil {
		return nil, berr.Wrap(berr.Host, err, "build failed")
	}

	res := &Result{Interp: in, InstallMap: installMap, RunArgv: runArgv, HasRun: hasRun}
	if p.tc.CompileDB != nil {
		res.CompileDB = p.tc.CompileDB.Entries()
	}
	return res, nil
}

// buildDeps is the DEPS phase: read the `deps` vector off the
// already-run script's environment, resolve (with caching) the dependency
// tree, then build it leaves-first via internal/deptree.BuildAll,
// recursively invoking this same executable against each dependency as
// `install -p <prefix> -C <dep-path>/<build-subpath>` in -D mode so it
// doesn't try to rebuild its own deps in turn.
func (p *Project) buildDeps(ctx context.Context, in *interp.Interp) error {
	specs, err := readDeps(in)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}

	selfExe, err := os.Executable()
	if err != nil {
		return berr.Wrap(berr.System, err, "resolving bob's own executable path for dependency resolution")
	}

	cache := &deptree.Cache{Dir: p.cfg.OutDir}
	specsHash := deptree.SpecsHash(specs)

	var tree *deptree.Node
	if !p.cfg.Force {
		if cached, ok := cache.Load(specsHash); ok {
			tree = cached
		}
	}
	if tree == nil {
		tree, err = deptree.ResolveRoot(ctx, selfExe, p.cfg.ProjectDir, specs, p.cfg.DepsRoot)
		if err != nil {
			return berr.Wrap(berr.Dependency, err, "resolving dependency tree")
		}
		if err := cache.Store(specsHash, tree); err != nil {
			p.cfg.Log.Warn("could not persist dependency tree cache: %s", err)
		}
	}

	buildCache := &deptree.BuildCache{Dir: p.cfg.OutDir}

	build := func(ctx context.Context, n *deptree.Node) error {
		hash := deptree.PathHash(n.Path)
		if !p.cfg.Force && buildCache.Has(hash) {
			p.cfg.Log.AlreadyDone(n.Human, "built", "")
			return nil
		}

		buildPath := n.Path
		if n.BuildPath != "" {
			buildPath = filepath.Join(n.Path, n.BuildPath)
		}
		args := []string{"-C", buildPath, "-p", p.cfg.Prefix, "-D", "-O", "install"}
		cmd := exec.CommandContext(ctx, selfExe, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return berr.Wrap(berr.Dependency, err, "building dependency %q: %s", n.Human, string(out))
		}
		buildCache.Mark(hash, n.Human)
		p.cfg.Log.Success("%s: dependency built.", n.Human)
		return nil
	}

	if err := deptree.BuildAll(ctx, tree, build, p.cfg.Workers); err != nil {
		return err
	}
	if err := buildCache.Save(); err != nil {
		p.cfg.Log.Warn("could not persist dependency build cache: %s", err)
	}
	return nil
}

// Install drives the INSTALL phase: a full, in-order
// install of res.InstallMap into the configured prefix. An empty or
// absent install map is a warning, not an error.
func (p *Project) Install(res *Result) error {
	if res.InstallMap == nil || len(res.InstallMap.Entries) == 0 {
		p.cfg.Log.Warn("no 'install' map declared; nothing to install")
		return nil
	}
	if err := install.All(p.cfg.ProjectDir, p.cfg.Prefix, res.InstallMap); err != nil {
		return err
	}
	p.cfg.Log.Success("installed to %s", p.cfg.Prefix)
	return nil
}

// Run drives the optional RUN phase, executing the script-declared `run`
// command with PATH/LD_LIBRARY_PATH augmented to reach the install
// prefix, chaining extraArgs onto its argv.
func (p *Project) Run(ctx context.Context, res *Result, extraArgs []string) error {
	if !res.HasRun || len(res.RunArgv) == 0 {
		return berr.New(berr.Script, "project declares no top-level 'run' command")
	}

	argv := append(append([]string{}, res.RunArgv...), extraArgs...)
	name := argv[0]
	if !filepath.IsAbs(name) {
		name = filepath.Join(p.cfg.Prefix, name)
	}

	augmentPathEnv("PATH", filepath.Join(p.cfg.Prefix, "bin"))
	augmentPathEnv("LD_LIBRARY_PATH", filepath.Join(p.cfg.Prefix, "lib"))

	cmd := exec.CommandContext(ctx, name, argv[1:]...)
	cmd.Dir = p.cfg.ProjectDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return berr.Wrap(berr.System, err, "running %s", name)
	}
	return nil
}

func augmentPathEnv(key, dir string) {
	cur := os.Getenv(key)
	if cur == "" {
		os.Setenv(key, dir)
		return
	}
	os.Setenv(key, dir+string(os.PathListSeparator)+cur)
}

// Cfg returns the resolved configuration, for CLI-layer reporting
// (`bob skeleton`, `bob package`) that needs ProjectDir/OutDir/Prefix
// without driving a full build.
func (p *Project) Cfg() Config { return p.cfg }
