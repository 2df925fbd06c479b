package hostlib

import (
	"os"
	"runtime"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/value"
)

// Platform is bob's host-introspection class: `.os()` reports the running
// platform's name in uname style and `.getenv(key)` reads an environment
// variable, returning none when unset.
type Platform struct{}

// NewPlatform builds the Platform host class.
func NewPlatform() *Platform { return &Platform{} }

// New implements hostclass.Constructor: `extern Platform; var p = Platform()`.
func (p *Platform) New(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Platform: didn't expect any arguments, got %d", len(args))
	}
	scope := value.NewScope()
	scope.AddVar("os", externMethod("os", p.os))
	scope.AddVar("getenv", externMethod("getenv", p.getenv))
	inst := &value.Value{Kind: value.KindInstance, Inst: &value.Instance{Scope: scope}}
	scope.Owner = inst
	return inst, nil
}

func (p *Platform) os(args []*value.Value) (*value.Value, error) {
	if len(args) != 0 {
		return nil, berr.New(berr.Script, "Platform.os: didn't expect any arguments, got %d", len(args))
	}
	return value.NewString(platformName()), nil
}

func (p *Platform) getenv(args []*value.Value) (*value.Value, error) {
	key, err := oneStringArg(args, "Platform.getenv")
	if err != nil {
		return nil, err
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		return value.None, nil
	}
	return value.NewString(val), nil
}

func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Darwin"
	case "linux":
		return "Linux"
	case "freebsd":
		return "FreeBSD"
	default:
		return runtime.GOOS
	}
}
