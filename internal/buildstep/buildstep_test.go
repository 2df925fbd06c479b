package buildstep

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddMergesConsecutiveSameKeySteps(t *testing.T) {
	q := NewQueue()

	q.Add(1, "compile", nil, "a.c")
	q.Add(1, "compile", nil, "b.c")

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, []any{"a.c", "b.c"}, q.Steps()[0].Data)
}

func TestAddStartsNewStepOnDifferentKey(t *testing.T) {
	q := NewQueue()

	q.Add(1, "compile", nil, "a.c")
	q.Add(2, "compile", nil, "b.c")

	assert.Equal(t, 2, q.Len())
}

func TestAddDoesNotMergeAcrossNonAdjacentStep(t *testing.T) {
	q := NewQueue()

	q.Add(1, "compile", nil, "a.c")
	q.Add(2, "link", nil, "a.o")
	q.Add(1, "compile", nil, "c.c")

	steps := q.Steps()
	assert.Equal(t, 3, len(steps))
	assert.Equal(t, []any{"a.c"}, steps[0].Data)
	assert.Equal(t, []any{"c.c"}, steps[2].Data)
}

func TestStepsReturnsASnapshotCopy(t *testing.T) {
	q := NewQueue()
	q.Add(1, "compile", nil, "a.c")

	snapshot := q.Steps()
	q.Add(2, "link", nil, "a.o")

	assert.Equal(t, 1, len(snapshot))
	assert.Equal(t, 2, q.Len())
}
