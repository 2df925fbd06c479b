package hostlib

import "sync"

// CompileDBEntry is one compile_commands.json-shaped record, written only
// when bob was invoked as `lsp`, one entry per compiled source.
type CompileDBEntry struct {
	Directory string
	File      string
	Arguments []string
}

// CompileDB accumulates compile database entries across every Cc.compile
// build step in a run, guarded by a mutex since compile tasks may run
// concurrently within internal/pool.
type CompileDB struct {
	mu      sync.Mutex
	Enabled bool
	entries []CompileDBEntry
}

// Add records one compiled source's invocation, a no-op unless Enabled.
func (d *CompileDB) Add(entry CompileDBEntry) {
	if d == nil || !d.Enabled {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry)
}

// Entries returns a snapshot of every recorded entry.
func (d *CompileDB) Entries() []CompileDBEntry {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]CompileDBEntry, len(d.entries))
	copy(out, d.entries)
	return out
}
