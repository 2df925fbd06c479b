package deptree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobsh/bob/internal/proc"
)

// CircularSentinel is the exact bytes a child process prints on stdout
// when it detects that its own would-be hash already appears in the
// ancestor chain passed to it.
const CircularSentinel = tagCircular

// Download fetches spec (local symlink or shallow git clone) into cacheDir
// and reports the resolved path and a human-readable name, without reading
// the dependency's own deps — the caller reads those by recursively
// self-invoking bob in path instead of inspecting the directory
// in-process.
func Download(spec Spec, cacheDir string) (path, human string, err error) {
	f := &DefaultFetcher{CacheDir: cacheDir}
	path, human, _, err = f.Fetch(spec)
	return path, human, err
}

// ResolveChild fetches spec and recursively resolves its own dependency
// subtree by invoking `<selfExe> dep-tree <ancestorHashes...>` with its
// working directory set to the fetched dependency's path. The child's
// stdout is the sentinel-wrapped serialized subtree rooted at itself;
// ancestorHashes must already include every hash from the root down to
// (but not including) this dependency.
func ResolveChild(ctx context.Context, selfExe string, spec Spec, cacheDir string, ancestorHashes []string) (*Node, error) {
	path, human, err := Download(spec, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("fetching dependency %q: %w", humanOf(spec, human), err)
	}

	args := append([]string{"dep-tree"}, ancestorHashes...)
	res, err := proc.Run(ctx, path, selfExe, args...)
	if err != nil {
		return nil, fmt.Errorf("resolving dependency tree of %q: %s", human, res.Output)
	}

	node, ok, err := Deserialize(res.Output)
	if err != nil {
		return nil, fmt.Errorf("parsing dependency tree of %q: %w", human, err)
	}
	if !ok {
		return nil, &ErrCircular{Human: human}
	}

	node.IsRoot = false
	node.Kind = spec.Kind
	node.Human = human
	node.Path = path
	return node, nil
}

// ResolveRoot resolves every one of rootSpecs into a child subtree using
// ResolveChild, assembling the overall tree rooted at rootPath (the
// current bob process's own project — never itself passed through a
// dep-tree self-invocation, since building it is this process's own job).
func ResolveRoot(ctx context.Context, selfExe, rootPath string, rootSpecs []Spec, cacheDir string) (*Node, error) {
	root := &Node{IsRoot: true, Path: rootPath}
	rootHash := PathHash(rootPath)

	dedup := map[string]bool{}
	for _, spec := range rootSpecs {
		child, err := ResolveChild(ctx, selfExe, spec, cacheDir, []string{rootHash})
		if err != nil {
			return nil, err
		}
		hash := PathHash(child.Path)
		if dedup[hash] {
			continue
		}
		dedup[hash] = true
		root.Children = append(root.Children, child)
	}
	return root, nil
}

// HandleDepTreeInstruction implements the `dep-tree <ancestor-hash>...`
// CLI instruction: it is run with its working directory already set to a
// dependency's fetched path. readSpecs loads this project's own declared
// deps (by running its build.fl). If this directory's own would-be hash
// is already among ancestorHashes, it writes the circular sentinel to
// stdout and returns nil (not an error — the parent that invoked this
// process is the one that turns it into a failure). Otherwise it resolves
// its own children, serializes the resulting subtree, and writes it to
// stdout.
func HandleDepTreeInstruction(ctx context.Context, selfExe string, ancestorHashes []string, readSpecs func() ([]Spec, error), cacheDir string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	wd, err = filepath.Abs(wd)
	if err != nil {
		return "", err
	}

	ownHash := PathHash(wd)
	for _, h := range ancestorHashes {
		if h == ownHash {
			return CircularSentinel, nil
		}
	}

	specs, err := readSpecs()
	if err != nil {
		return "", err
	}

	node := &Node{Path: wd, Human: filepath.Base(wd)}
	nextAncestors := append(append([]string{}, ancestorHashes...), ownHash)

	dedup := map[string]bool{}
	for _, spec := range specs {
		child, err := ResolveChild(ctx, selfExe, spec, cacheDir, nextAncestors)
		if err != nil {
			if circ, ok := err.(*ErrCircular); ok {
				return "", circ
			}
			return "", err
		}
		hash := PathHash(child.Path)
		if dedup[hash] {
			continue
		}
		dedup[hash] = true
		node.Children = append(node.Children, child)
	}

	return Serialize(node), nil
}
