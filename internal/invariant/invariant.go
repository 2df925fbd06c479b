// Package invariant centralizes the precondition/postcondition checks used
// at component boundaries throughout bob. A failing invariant means a bug in
// bob itself, never bad user input — those are reported as errors instead.
package invariant

import "fmt"

// Invariant panics if cond is false. Use for conditions that must hold
// regardless of caller behavior.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic("invariant violated: " + fmt.Sprintf(format, args...))
	}
}

// Precondition panics if cond is false. Use at the top of a function to
// document what callers must guarantee.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		panic("precondition violated: " + fmt.Sprintf(format, args...))
	}
}

// Postcondition panics if cond is false. Use before returning to document
// what a function guarantees to its caller.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		panic("postcondition violated: " + fmt.Sprintf(format, args...))
	}
}

// NotNil panics if v is nil. name is used in the panic message.
func NotNil(v any, name string) {
	if v == nil {
		panic("invariant violated: " + name + " must not be nil")
	}
}
