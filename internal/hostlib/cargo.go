package hostlib

import (
	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/proc"
	"github.com/bobsh/bob/internal/script/value"
)

// Cargo is bob's Rust/cargo driver host class: `.build()` enqueues a build
// step under one fixed key that shells out to `cargo build`. Consecutive
// .build() calls merge into that step, which then fails with a script
// error; calls separated by other build steps are not detected and each
// runs cargo.
type Cargo struct {
	tc *Toolchain
}

// NewCargo builds the Cargo host class bound to tc.
func NewCargo(tc *Toolchain) *Cargo { return &Cargo{tc: tc} }

// New implements hostclass.Constructor: `extern Cargo; var c = Cargo()`.
func (c *Cargo) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Cargo: didn't expect any arguments, got %d", len(args))
	}

	scope := value.NewScope()
	scope.AddVar("build", externMethod("build", c.build))
	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func (c *Cargo) build(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Cargo.build: didn't expect any arguments, got %d", len(args))
	}

	if err := requireTool("cargo"); err != nil {
		return nil, err
	}

	out := "target/debug/"
	c.tc.Queue.Add(hashKey("Cargo.build"), "Cargo build", c.buildStep(), struct{}{})
	return value.NewString(out), nil
}

func (c *Cargo) buildStep() func(data []any) error {
	return func(data []any) error {
		if len(data) != 1 {
			return berr.New(berr.Script, "Cargo.build can't be called more than once (was called %d times)", len(data))
		}

		c.tc.Log.Info("Cargo: building...")
		res, err := proc.Run(ctxTODO(), c.tc.ProjectDir, "cargo", "build")
		if err != nil {
			c.tc.Log.Fatal("%s", res.Output)
			return berr.Wrap(berr.System, err, "cargo build failed")
		}
		c.tc.Log.Success("Cargo project: built.")
		return nil
	}
}
