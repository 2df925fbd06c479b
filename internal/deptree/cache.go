package deptree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache reuses a previously resolved and serialized tree when the
// dependency list it was built from hasn't changed: the deps.hash/
// deps.tree pair is consulted before re-running the whole recursive
// resolution.
type Cache struct {
	Dir string // bob output directory; holds deps.hash and deps.tree
}

func (c *Cache) hashPath() string { return filepath.Join(c.Dir, "deps.hash") }
func (c *Cache) treePath() string { return filepath.Join(c.Dir, "deps.tree") }

// SpecsHash hashes the dependency spec list as declared in build.fl, used
// to detect whether the dependency vector itself changed since the tree
// was last resolved and cached.
func SpecsHash(specs []Spec) string {
	var sb strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&sb, "%d|%s|%s|%s\n", s.Kind, s.LocalPath, s.GitURL, s.GitBranch)
	}
	return pathHashShort(sb.String())
}

// Load returns a cached tree if present and specsHash matches what was
// cached, else ok is false and the tree must be rebuilt.
func (c *Cache) Load(specsHash string) (tree *Node, ok bool) {
	cachedHash, err := os.ReadFile(c.hashPath())
	if err != nil || strings.TrimSpace(string(cachedHash)) != specsHash {
		return nil, false
	}

	serialized, err := os.ReadFile(c.treePath())
	if err != nil {
		return nil, false
	}

	node, valid, err := Deserialize(string(serialized))
	if err != nil || !valid {
		return nil, false
	}
	return node, true
}

// Store persists tree and the hash of the specs it was built from.
func (c *Cache) Store(specsHash string, tree *Node) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Dir, err)
	}
	if err := os.WriteFile(c.hashPath(), []byte(specsHash), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.hashPath(), err)
	}
	if err := os.WriteFile(c.treePath(), []byte(Serialize(tree)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.treePath(), err)
	}
	return nil
}
