package hostlib

import (
	"os/exec"

	"github.com/bobsh/bob/internal/berr"
)

// requireTool checks that name is on PATH before any host class shells
// out to it; a missing required external tool is a host error, reported
// up front rather than as a confusing exec failure mid-build.
func requireTool(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return berr.New(berr.Host, "couldn't find %q executable in PATH; it must be installed separately", name)
	}
	return nil
}
