package berr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(Script, "undefined identifier %q", "foo")

	assert.Equal(t, `undefined identifier "foo"`, err.Error())
	assert.Equal(t, Script, err.Kind)
}

func TestWrapPreservesCauseForErrorsIs(t *testing.T) {
	cause := os.ErrNotExist
	err := Wrap(System, cause, "reading build.fl")

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "reading build.fl")
}

func TestKindSurvivesFurtherWrapping(t *testing.T) {
	inner := DependencyErr("clone failed")
	outer := fmt.Errorf("resolving tree: %w", inner)

	var be *Error
	require.True(t, errors.As(outer, &be))
	assert.Equal(t, Dependency, be.Kind)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "script", Script.String())
	assert.Equal(t, "host", Host.String())
	assert.Equal(t, "system", System.String())
	assert.Equal(t, "dependency", Dependency.String())
}

func TestConvenienceConstructorsTagKinds(t *testing.T) {
	assert.Equal(t, Script, ScriptErr("x").Kind)
	assert.Equal(t, Host, HostErr("x").Kind)
	assert.Equal(t, System, SystemErr("x").Kind)
	assert.Equal(t, Dependency, DependencyErr("x").Kind)
}
