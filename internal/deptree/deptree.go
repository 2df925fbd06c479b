// Package deptree builds and serializes bob's recursive dependency tree.
// A project's build.fl lists its direct dependencies (local symlinks or
// shallow git clones); each dependency is itself a bob project, so the
// tree is built by recursively invoking this same logic against every
// dependency, detecting cycles by hashing the ancestor chain of
// ("would-be") dependency paths.
//
// The wire format — TAB-indented, one node per line, wrapped in a
// "<bob-dep-tree>...</bob-dep-tree>" sentinel — is part of bob's
// self-invocation contract (a parent process parses its child's stdout)
// and is therefore plain text by requirement, not a place to reach for a
// binary/structured encoding like CBOR.
package deptree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes how a dependency is fetched.
type Kind int

const (
	KindInvalid Kind = iota
	KindLocal
	KindGit
)

// Spec is one dependency declaration lifted out of a build.fl's deps vector.
type Spec struct {
	Kind      Kind
	LocalPath string // for KindLocal
	GitURL    string // for KindGit
	GitBranch string // for KindGit, optional
}

// Node is one entry in the resolved dependency tree.
type Node struct {
	IsRoot    bool
	Kind      Kind
	Path      string // absolute path to the fetched dependency in the cache
	Human     string // human-readable name (repo name / last path component)
	BuildPath string // subdirectory to build from, if not Path itself
	Children  []*Node
}

const (
	tagStart  = "<bob-dep-tree>\n"
	tagEnd    = "</bob-dep-tree>\n"
	tagCircular = "<bob-dep-tree circular />\n"
)

// PathHash returns the stable hash of an absolute dependency path used
// for cycle detection and build-cache keying.
func PathHash(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:8])
}

// ErrCircular is returned by Build when adding the current node would
// create a cycle in the dependency graph.
type ErrCircular struct{ Human string }

func (e *ErrCircular) Error() string {
	return fmt.Sprintf("Dependency tree is circular after adding '%s'", e.Human)
}

// Fetcher fetches (symlinks or shallow-clones) a dependency and reports its
// resolved local path, human-readable name, and that dependency's own
// direct Specs (read from its build.fl).
type Fetcher interface {
	Fetch(spec Spec) (path, human string, children []Spec, err error)
}

// Build recursively resolves specs into a dependency tree rooted at
// rootPath, detecting cycles via ancestorHashes: the hash of every
// dependency path already on the current recursion stack.
func Build(specs []Spec, rootPath string, fetcher Fetcher, ancestorHashes map[string]bool) (*Node, error) {
	root := &Node{IsRoot: true, Path: rootPath}

	wouldBeHash := PathHash(rootPath)
	if ancestorHashes[wouldBeHash] {
		return nil, &ErrCircular{Human: rootPath}
	}

	if len(specs) == 0 {
		return root, nil
	}

	seen := map[string]bool{wouldBeHash: true}
	for h := range ancestorHashes {
		seen[h] = true
	}

	var children []*Node
	dedup := map[string]bool{}

	for _, spec := range specs {
		path, human, grandchildSpecs, err := fetcher.Fetch(spec)
		if err != nil {
			return nil, fmt.Errorf("fetching dependency %q: %w", humanOf(spec, human), err)
		}

		hash := PathHash(path)
		if dedup[hash] {
			// A dependency listed twice in the same vector is pruned
			// silently: simpler build scripts, no real downside.
			continue
		}
		dedup[hash] = true

		child, err := Build(grandchildSpecs, path, fetcher, seen)
		if err != nil {
			return nil, err
		}
		child.IsRoot = false
		child.Kind = spec.Kind
		child.Human = human
		children = append(children, child)
	}

	root.Children = children
	return root, nil
}

func humanOf(spec Spec, human string) string {
	if human != "" {
		return human
	}
	if spec.Kind == KindGit {
		return spec.GitURL
	}
	return spec.LocalPath
}

// Serialize renders tree as the TAB-indented sentinel-wrapped text format a
// child bob process emits on stdout for its parent to parse. Each line
// carries one node's fields colon-separated: kind integer, human name,
// cache path, build subpath.
func Serialize(tree *Node) string {
	var sb strings.Builder
	sb.WriteString(tagStart)
	writeNode(&sb, tree, 0)
	sb.WriteString(tagEnd)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node, depth int) {
	sb.WriteString(strings.Repeat("\t", depth))
	fmt.Fprintf(sb, "%d:%s:%s:%s\n", int(n.Kind), n.Human, n.Path, n.BuildPath)
	for _, c := range n.Children {
		writeNode(sb, c, depth+1)
	}
}

// Deserialize parses the sentinel-wrapped TAB-indented text format back
// into a Node tree. ok is false (with no error) if the text is the
// "circular" sentinel rather than a tree.
func Deserialize(text string) (tree *Node, ok bool, err error) {
	if text == tagCircular {
		return nil, false, nil
	}
	if !strings.HasPrefix(text, tagStart) || !strings.HasSuffix(text, tagEnd) {
		return nil, false, fmt.Errorf("malformed dependency tree output: missing sentinel tags")
	}
	body := strings.TrimSuffix(strings.TrimPrefix(text, tagStart), tagEnd)

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return &Node{IsRoot: true}, true, nil
	}

	root, _, perr := parseLines(lines, 0, 0)
	if perr != nil {
		return nil, false, perr
	}
	root.IsRoot = true
	return root, true, nil
}

// parseLines consumes lines starting at i that are indented at exactly
// depth, returning the node built from lines[i] and the next unconsumed
// index.
func parseLines(lines []string, i, depth int) (*Node, int, error) {
	if i >= len(lines) {
		return nil, i, fmt.Errorf("unexpected end of dependency tree")
	}
	line := lines[i]
	got := 0
	for got < len(line) && line[got] == '\t' {
		got++
	}
	if got != depth {
		return nil, i, fmt.Errorf("bad indentation at line %d: expected depth %d, got %d", i, depth, got)
	}

	rest := line[got:]
	fields := strings.SplitN(rest, ":", 4)
	if len(fields) != 4 {
		return nil, i, fmt.Errorf("malformed dependency tree node at line %d: expected kind:human:path:buildpath", i)
	}
	kind, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, i, fmt.Errorf("malformed dependency kind at line %d: %w", i, err)
	}
	n := &Node{Kind: Kind(kind), Human: fields[1], Path: fields[2], BuildPath: fields[3]}
	i++

	for i < len(lines) {
		next := lines[i]
		childDepth := 0
		for childDepth < len(next) && next[childDepth] == '\t' {
			childDepth++
		}
		if childDepth != depth+1 {
			break
		}
		child, ni, err := parseLines(lines, i, depth+1)
		if err != nil {
			return nil, i, err
		}
		n.Children = append(n.Children, child)
		i = ni
	}
	return n, i, nil
}

func lastComponent(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
