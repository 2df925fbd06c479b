package cookie

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogStoresNonEmptyOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.o")

	require.NoError(t, WriteLog(out, "warning: something\n"))

	assert.Equal(t, "warning: something\n", ReadLog(out))
}

func TestWriteLogEmptyRemovesSidecar(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.o")
	require.NoError(t, os.WriteFile(out+".log", []byte("stale"), 0o644))

	require.NoError(t, WriteLog(out, "  \n"))

	_, err := os.Stat(out + ".log")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteLogEmptyWithoutSidecarIsANoop(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.o")

	assert.NoError(t, WriteLog(out, ""))
}

func TestReadLogMissingSidecarIsEmpty(t *testing.T) {
	assert.Empty(t, ReadLog(filepath.Join(t.TempDir(), "a.o")))
}
