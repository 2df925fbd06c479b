package deptree

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bobsh/bob/internal/berr"
)

// DefaultFetcher resolves local dependencies as symlinks and git
// dependencies as shallow clones into CacheDir.
type DefaultFetcher struct {
	CacheDir string
	// ReadSpecs loads a dependency's own direct Specs from its build.fl,
	// given the path it was fetched to. Injected so this package doesn't
	// depend on internal/script.
	ReadSpecs func(path string) ([]Spec, error)
}

func (f *DefaultFetcher) Fetch(spec Spec) (path, human string, children []Spec, err error) {
	switch spec.Kind {
	case KindLocal:
		path, human, err = f.fetchLocal(spec)
	case KindGit:
		path, human, err = f.fetchGit(spec)
	default:
		err = berr.New(berr.Dependency, "dependency has invalid or missing 'kind' attribute")
	}
	if err != nil {
		return "", "", nil, err
	}

	if f.ReadSpecs != nil {
		children, err = f.ReadSpecs(path)
		if err != nil {
			return "", "", nil, fmt.Errorf("reading dependencies of %s: %w", path, err)
		}
	}
	return path, human, children, nil
}

func (f *DefaultFetcher) fetchLocal(spec Spec) (path, human string, err error) {
	abs, err := filepath.Abs(spec.LocalPath)
	if err != nil {
		return "", "", fmt.Errorf("resolving local dependency path %q: %w", spec.LocalPath, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", "", berr.Wrap(berr.Dependency, err, "local dependency %q not found", spec.LocalPath)
	}

	human = filepath.Base(abs)
	linkName := filepath.Join(f.CacheDir, fmt.Sprintf("%s.%s.local", human, pathHashShort(abs)))

	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating dependency cache dir: %w", err)
	}
	if _, err := os.Lstat(linkName); err != nil {
		if err := os.Symlink(abs, linkName); err != nil {
			return "", "", fmt.Errorf("symlinking local dependency %q: %w", spec.LocalPath, err)
		}
	}
	return linkName, human, nil
}

func (f *DefaultFetcher) fetchGit(spec Spec) (path, human string, err error) {
	human = filepath.Base(trimGitSuffix(spec.GitURL))
	dest := filepath.Join(f.CacheDir, fmt.Sprintf("%s.%s.git", human, pathHashShort(spec.GitURL+spec.GitBranch)))

	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating dependency cache dir: %w", err)
	}

	if _, err := os.Stat(dest); err == nil {
		return dest, human, nil
	}

	if _, err := exec.LookPath("git"); err != nil {
		return "", "", berr.New(berr.Host, "couldn't find \"git\" executable in PATH; it must be installed separately")
	}

	args := []string{"clone", "--depth", "1", "--recurse-submodules", "--shallow-submodules"}
	if spec.GitBranch != "" {
		args = append(args, "--branch", spec.GitBranch)
	}
	args = append(args, spec.GitURL, dest)

	cmd := exec.CommandContext(context.Background(), "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", "", berr.Wrap(berr.Dependency, err, "git clone of %q failed: %s", spec.GitURL, string(out))
	}
	return dest, human, nil
}

func trimGitSuffix(url string) string {
	const suffix = ".git"
	if len(url) > len(suffix) && url[len(url)-len(suffix):] == suffix {
		return url[:len(url)-len(suffix)]
	}
	return url
}

func pathHashShort(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
