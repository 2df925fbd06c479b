package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBuildFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, BuildFile), []byte(content), 0o644))
}

func TestNewResolvesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out"), p.cfg.OutDir)
	assert.Equal(t, filepath.Join(dir, "out", "prefix"), p.cfg.Prefix)
	assert.Equal(t, 1, p.cfg.Workers)
	assert.Equal(t, filepath.Join(dir, "out", "..", ".bob-deps"), p.cfg.DepsRoot)

	info, err := os.Stat(filepath.Join(p.cfg.OutDir, "bob"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "New must create <out>/bob up front")
}

func TestNewRespectsExplicitOutAndPrefix(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir, OutDir: "build", Prefix: "/custom/prefix", Workers: 4})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "build"), p.cfg.OutDir)
	assert.Equal(t, "/custom/prefix", p.cfg.Prefix)
	assert.Equal(t, 4, p.cfg.Workers)
}

func TestNewEnvDepsRootWinsOverConfig(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")
	t.Setenv("BOB_DEPS_PATH", "/env/deps")

	p, err := New(Config{ProjectDir: dir, DepsRoot: "/config/deps"})

	require.NoError(t, err)
	assert.Equal(t, "/env/deps", p.cfg.DepsRoot)
}

func TestNewDefaultsWorkingDirectoryWhenProjectDirEmpty(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	require.NoError(t, os.Chdir(dir))

	p, err := New(Config{})

	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(p.cfg.ProjectDir)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, resolved)
}

func TestBuildFilePathMissingIsScriptError(t *testing.T) {
	dir := t.TempDir()

	p, err := New(Config{ProjectDir: dir})
	require.NoError(t, err)

	_, err = p.buildFilePath()
	assert.Error(t, err)
}

func TestBuildFailsWithoutBuildFl(t *testing.T) {
	dir := t.TempDir()

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	_, err = p.Build(context.Background(), ModeBuild)
	assert.Error(t, err)
}

func TestBuildWarnsAndInstallWarnsWithEmptyScript(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	res, err := p.Build(context.Background(), ModeBuild)
	require.NoError(t, err)
	require.NotNil(t, res.InstallMap)
	assert.Empty(t, res.InstallMap.Entries)
	assert.False(t, res.HasRun)

	require.NoError(t, p.Install(res))
}

func TestBuildAndInstallCopiesDeclaredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	writeBuildFile(t, dir, `import bob
install = {"README.md": "share/README.md"}
`)

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	res, err := p.Build(context.Background(), ModeBuild)
	require.NoError(t, err)
	require.NotNil(t, res.InstallMap)
	require.Len(t, res.InstallMap.Entries, 1)

	require.NoError(t, p.Install(res))

	data, err := os.ReadFile(filepath.Join(p.cfg.Prefix, "share", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestReadDepsRejectsNonVector(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, `import bob
deps = "nope"
`)

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	_, err = p.ReadOwnDeps()
	assert.Error(t, err)
}

func TestReadDepsEmptyIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	specs, err := p.ReadOwnDeps()
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestBuildRejectsNonVectorRunCommand(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, `import bob
run = 7
`)

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	_, err = p.Build(context.Background(), ModeBuild)
	assert.Error(t, err)
}

func TestRunExecutesDeclaredCommand(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, `import bob
run = ["/bin/echo", "hello"]
`)

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	res, err := p.Build(context.Background(), ModeBuild)
	require.NoError(t, err)
	require.True(t, res.HasRun)
	require.Equal(t, []string{"/bin/echo", "hello"}, res.RunArgv)

	require.NoError(t, p.Run(context.Background(), res, nil))
}

func TestRunErrorsWithoutDeclaredCommand(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir, DisableDeps: true})
	require.NoError(t, err)

	res, err := p.Build(context.Background(), ModeBuild)
	require.NoError(t, err)

	err = p.Run(context.Background(), res, nil)
	assert.Error(t, err)
}

func TestCfgReflectsResolvedConfig(t *testing.T) {
	dir := t.TempDir()
	writeBuildFile(t, dir, "import bob\n")

	p, err := New(Config{ProjectDir: dir})
	require.NoError(t, err)

	assert.Equal(t, p.cfg, p.Cfg())
}
