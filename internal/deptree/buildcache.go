package deptree

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// buildCacheFile is the local, non-contractual sidecar bob keeps next to
// deps.hash/deps.tree. Unlike those two (whose plain-text/TAB-indented
// shape is part of the wire protocol a subprocess dep-tree invocation must
// speak), this file never leaves the current machine, so it's encoded with
// fxamacker/cbor/v2 rather than hand-rolled text.
const buildCacheFile = "deps.cache.cbor"

// BuildMarker records when a resolved dependency node was last built
// successfully, keyed by its path hash.
type BuildMarker struct {
	Human   string    `cbor:"human"`
	BuiltAt time.Time `cbor:"built_at"`
}

// BuildCache persists BuildMarkers across bob invocations so a dependency
// that hasn't changed since its last successful build can be skipped
// without re-running BuildAll's full leaves-first walk.
type BuildCache struct {
	Dir     string
	markers map[string]BuildMarker
	loaded  bool
}

func (c *BuildCache) path() string { return filepath.Join(c.Dir, buildCacheFile) }

// Load reads the sidecar, tolerating a missing or corrupt file by starting
// from an empty cache (a stale build cache costs an extra rebuild, never a
// wrong one).
func (c *BuildCache) Load() {
	c.markers = map[string]BuildMarker{}
	c.loaded = true

	data, err := os.ReadFile(c.path())
	if err != nil {
		return
	}
	var decoded map[string]BuildMarker
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return
	}
	c.markers = decoded
}

// Mark records that the node at hash was just built successfully.
func (c *BuildCache) Mark(hash, human string) {
	if !c.loaded {
		c.Load()
	}
	c.markers[hash] = BuildMarker{Human: human, BuiltAt: time.Now()}
}

// Has reports whether hash has any recorded successful build, used as a
// coarse "don't bother re-invoking this dependency's own build" check
// layered on top of the recursive BuildAll walk; the dependency's own
// frugality checks (internal/cookie) still decide whether any of its
// individual compile/link steps actually re-run.
func (c *BuildCache) Has(hash string) bool {
	if !c.loaded {
		c.Load()
	}
	_, ok := c.markers[hash]
	return ok
}

// Save persists the current marker set.
func (c *BuildCache) Save() error {
	if !c.loaded {
		c.Load()
	}
	data, err := cbor.Marshal(c.markers)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path(), data, 0o644)
}
