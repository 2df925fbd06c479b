package hostlib

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobsh/bob/internal/buildstep"
	"github.com/bobsh/bob/internal/cookie"
	"github.com/bobsh/bob/internal/logging"
	"github.com/bobsh/bob/internal/script/value"
)

func testToolchain(t *testing.T) *Toolchain {
	t.Helper()
	return &Toolchain{
		ProjectDir: t.TempDir(),
		OutDir:     t.TempDir(),
		Queue:      buildstep.NewQueue(),
		Built:      cookie.NewBuiltSet(),
		Log:        logging.New(io.Discard, io.Discard),
		Workers:    1,
	}
}

func strs(ss ...string) *value.Value {
	elems := make([]*value.Value, len(ss))
	for i, s := range ss {
		elems[i] = value.NewString(s)
	}
	return value.NewVec(elems)
}

func method(t *testing.T, inst *value.Value, name string) func([]*value.Value) (*value.Value, error) {
	t.Helper()
	require.Equal(t, value.KindInstance, inst.Kind)
	m, ok := inst.Inst.Scope.FindVar(name)
	require.True(t, ok, "instance should have a %q method", name)
	return m.Fn.Extern
}

func TestCcCompileReturnsCookiesAndEnqueuesOneStep(t *testing.T) {
	tc := testToolchain(t)
	inst, err := NewCc(tc).New([]*value.Value{strs("-O2")})
	require.NoError(t, err)

	compile := method(t, inst, "compile")
	out, err := compile([]*value.Value{strs("a.c", "b.c")})

	require.NoError(t, err)
	require.Len(t, out.Vec, 2)
	assert.Contains(t, out.Vec[0].Str, ".cookie.")
	assert.True(t, strings.HasSuffix(out.Vec[0].Str, ".o"))
	assert.Equal(t, 1, tc.Queue.Len(), "both sources belong to the same deferred step")
}

func TestCcCompileMergesRepeatCallsWithSameFlags(t *testing.T) {
	tc := testToolchain(t)
	inst, err := NewCc(tc).New([]*value.Value{strs("-O2")})
	require.NoError(t, err)
	compile := method(t, inst, "compile")

	_, err = compile([]*value.Value{strs("a.c")})
	require.NoError(t, err)
	_, err = compile([]*value.Value{strs("b.c")})
	require.NoError(t, err)

	require.Equal(t, 1, tc.Queue.Len())
	assert.Len(t, tc.Queue.Steps()[0].Data, 2)
}

func TestCcInstancesWithDifferentFlagsDoNotMerge(t *testing.T) {
	tc := testToolchain(t)
	fast, err := NewCc(tc).New([]*value.Value{strs("-O2")})
	require.NoError(t, err)
	slow, err := NewCc(tc).New([]*value.Value{strs("-O0")})
	require.NoError(t, err)

	_, err = method(t, fast, "compile")([]*value.Value{strs("a.c")})
	require.NoError(t, err)
	_, err = method(t, slow, "compile")([]*value.Value{strs("b.c")})
	require.NoError(t, err)

	assert.Equal(t, 2, tc.Queue.Len())
}

func TestCcRejectsNonVectorFlags(t *testing.T) {
	tc := testToolchain(t)

	_, err := NewCc(tc).New([]*value.Value{value.NewString("-O2")})

	assert.Error(t, err)
}

func TestLinkerLinkCookieIsOrderIndependent(t *testing.T) {
	tc := testToolchain(t)
	inst, err := NewLinker(tc).New([]*value.Value{strs("-lm")})
	require.NoError(t, err)
	link := method(t, inst, "link")

	a, err := link([]*value.Value{strs("a.o", "b.o")})
	require.NoError(t, err)
	b, err := link([]*value.Value{strs("b.o", "a.o")})
	require.NoError(t, err)

	assert.Equal(t, a.Str, b.Str)
	assert.Contains(t, a.Str, "linker.link.cookie.")
	assert.True(t, strings.HasSuffix(a.Str, ".l"))
}

func TestLinkerArchiveUsesItsOwnCookieNamespace(t *testing.T) {
	tc := testToolchain(t)
	inst, err := NewLinker(tc).New([]*value.Value{strs()})
	require.NoError(t, err)

	out, err := method(t, inst, "archive")([]*value.Value{strs("a.o")})

	require.NoError(t, err)
	assert.Contains(t, out.Str, "linker.archive.cookie.")
	assert.True(t, strings.HasSuffix(out.Str, ".a"))
}

func TestFsExistsAndAlphabeticalList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.c"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), nil, 0o644))

	inst, err := NewFs().New(nil)
	require.NoError(t, err)

	exists, err := method(t, inst, "exists")([]*value.Value{value.NewString(filepath.Join(dir, "a.c"))})
	require.NoError(t, err)
	assert.True(t, exists.Bool)

	missing, err := method(t, inst, "exists")([]*value.Value{value.NewString(filepath.Join(dir, "nope.c"))})
	require.NoError(t, err)
	assert.False(t, missing.Bool)

	listed, err := method(t, inst, "list")([]*value.Value{value.NewString(dir)})
	require.NoError(t, err)
	require.Len(t, listed.Vec, 2)
	assert.True(t, strings.HasSuffix(listed.Vec[0].Str, "a.c"))
	assert.True(t, strings.HasSuffix(listed.Vec[1].Str, "z.c"))
}

func TestPlatformGetenv(t *testing.T) {
	t.Setenv("BOB_TEST_ENV", "value")

	inst, err := NewPlatform().New(nil)
	require.NoError(t, err)
	getenv := method(t, inst, "getenv")

	set, err := getenv([]*value.Value{value.NewString("BOB_TEST_ENV")})
	require.NoError(t, err)
	assert.Equal(t, "value", set.Str)

	unset, err := getenv([]*value.Value{value.NewString("BOB_TEST_ENV_UNSET")})
	require.NoError(t, err)
	assert.Equal(t, value.KindNone, unset.Kind)
}

func TestPlatformOSReportsAName(t *testing.T) {
	inst, err := NewPlatform().New(nil)
	require.NoError(t, err)

	name, err := method(t, inst, "os")(nil)

	require.NoError(t, err)
	assert.NotEmpty(t, name.Str)
}

func TestDepFieldsRoundTrip(t *testing.T) {
	m := value.NewMap([]value.MapEntry{
		{Key: value.NewString("kind"), Val: value.NewString("git")},
		{Key: value.NewString("git_url"), Val: value.NewString("https://example.com/x.git")},
		{Key: value.NewString("git_branch"), Val: value.NewString("main")},
	})

	inst, err := NewDep().New([]*value.Value{m})
	require.NoError(t, err)

	kind, localPath, gitURL, gitBranch, err := Fields(inst)
	require.NoError(t, err)
	assert.Equal(t, "git", kind)
	assert.Empty(t, localPath)
	assert.Equal(t, "https://example.com/x.git", gitURL)
	assert.Equal(t, "main", gitBranch)
}

func TestDepFieldsRejectsUnknownKind(t *testing.T) {
	m := value.NewMap([]value.MapEntry{
		{Key: value.NewString("kind"), Val: value.NewString("svn")},
	})
	inst, err := NewDep().New([]*value.Value{m})
	require.NoError(t, err)

	_, _, _, _, err = Fields(inst)

	assert.Error(t, err)
}

func TestParseMakeDepsExtractsHeaders(t *testing.T) {
	out := ": a.c \\\n  include/a.h \\\n  include/b.h\n"

	headers := parseMakeDeps(out)

	assert.Equal(t, []string{"a.c", "include/a.h", "include/b.h"}, headers)
}

func TestHashKeyIsStablePerInput(t *testing.T) {
	a := hashKey("Cc.compile", "cc", []string{"-O2"})
	b := hashKey("Cc.compile", "cc", []string{"-O2"})
	c := hashKey("Cc.compile", "cc", []string{"-O0"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
