package deptree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDepTreeInstructionDetectsSelfAncestor(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	ownHash := PathHash(abs)

	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldwd)

	out, err := HandleDepTreeInstruction(context.Background(), "bob", []string{ownHash}, func() ([]Spec, error) {
		t.Fatal("readSpecs should not be called once a cycle is already detected")
		return nil, nil
	}, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, CircularSentinel, out)
}

func TestHandleDepTreeInstructionNoDepsSerializesEmptyTree(t *testing.T) {
	out, err := HandleDepTreeInstruction(context.Background(), "bob", nil, func() ([]Spec, error) {
		return nil, nil
	}, t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "<bob-dep-tree>")
	assert.Contains(t, out, "</bob-dep-tree>")
}
