package deptree

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bobsh/bob/internal/invariant"
)

// BuildFunc builds one resolved dependency node (runs its own bob build in
// its fetched directory). The root node is never passed to BuildFunc —
// building it is the current bob process's own job, not a dependency's.
type BuildFunc func(ctx context.Context, n *Node) error

// BuildAll walks tree leaves-first, building each batch of dependencies
// that have no unbuilt children in parallel before moving up a level: pop
// all current leaves, build them concurrently, then treat their parents
// as the new leaves, until the whole tree (except the root) is built.
func BuildAll(ctx context.Context, tree *Node, build BuildFunc, workers int) error {
	invariant.Precondition(tree != nil && tree.IsRoot, "BuildAll needs the tree's root node")
	if workers < 1 {
		workers = 1
	}

	built := map[*Node]bool{}

	for {
		batch := nextBatch(tree, built)
		if len(batch) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, n := range batch {
			n := n
			g.Go(func() error { return build(gctx, n) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, n := range batch {
			built[n] = true
		}
	}
}

// nextBatch returns every not-yet-built node whose children are all
// already built, skipping the root (built by the caller itself).
func nextBatch(n *Node, built map[*Node]bool) []*Node {
	var batch []*Node
	var walk func(n *Node) bool // returns true if n is fully built
	walk = func(n *Node) bool {
		if !n.IsRoot && built[n] {
			return true
		}
		allChildrenBuilt := true
		for _, c := range n.Children {
			if !walk(c) {
				allChildrenBuilt = false
			}
		}
		if n.IsRoot {
			return allChildrenBuilt
		}
		if allChildrenBuilt && !built[n] {
			batch = append(batch, n)
		}
		return false
	}
	walk(n)
	return dedupNodes(batch)
}

func dedupNodes(nodes []*Node) []*Node {
	seen := map[*Node]bool{}
	out := nodes[:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
