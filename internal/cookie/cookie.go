// Package cookie implements bob's content-addressed build artifact paths
// ("cookies") and the frugality checks that decide whether a build step
// can be skipped.
//
// A cookie path embeds a blake2b hash of the source path so that two
// sources with the same base name in different directories never collide
// in the flat "<out>/bob/<sanitized-source>.cookie.<hash>.<ext>" layout.
package cookie

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Path returns the cookie artifact path for a source at srcPath, rooted
// under outDir, with the given output extension (no leading dot).
func Path(outDir, srcPath, ext string) string {
	h := hashPath(srcPath)
	sanitized := strings.ReplaceAll(srcPath, string(filepath.Separator), "_")
	return filepath.Join(outDir, "bob", fmt.Sprintf("%s.cookie.%s.%s", sanitized, h, ext))
}

func hashPath(path string) string {
	sum := blake2b.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

// BuiltSet tracks which cookies have already been produced during the
// current build run, so that a static-link build step can tell whether an
// object it depends on was rebuilt this run even if mtime-based frugality
// alone would have skipped it.
type BuiltSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewBuiltSet creates an empty set.
func NewBuiltSet() *BuiltSet { return &BuiltSet{seen: make(map[string]struct{})} }

// Add records cookie as built this run.
func (s *BuiltSet) Add(cookiePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[cookiePath] = struct{}{}
}

// Has reports whether cookie was built this run.
func (s *BuiltSet) Has(cookiePath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[cookiePath]
	return ok
}

// FlagsChanged compares flags against the `<out>.flags` sidecar file next
// to out, writing the new flags out and returning true if they differ (or
// the sidecar doesn't exist yet). It must be checked (and its side effect
// applied) before any mtime comparison, since a flag change invalidates
// frugality regardless of timestamps.
func FlagsChanged(flags []string, out string) (bool, error) {
	path := out + ".flags"
	joined := strings.Join(flags, "\n")
	if len(flags) > 0 {
		joined += "\n"
	}

	prev, err := os.ReadFile(path)
	changed := err != nil || string(prev) != joined

	if changed {
		if werr := os.WriteFile(path, []byte(joined), 0o644); werr != nil {
			return true, fmt.Errorf("writing flags file %s: %w", path, werr)
		}
	}
	return changed, nil
}

// NeedsRebuild compares target's mtime against every entry in deps,
// reporting true if target is missing or older than any dependency.
func NeedsRebuild(deps []string, target string) (bool, error) {
	targetInfo, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", target, err)
	}

	for _, dep := range deps {
		depInfo, err := os.Stat(dep)
		if err != nil {
			// A dependency that no longer exists (e.g. a header that was
			// removed) can't be compared; force a rebuild to re-derive deps.
			return true, nil
		}
		if depInfo.ModTime().After(targetInfo.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// WriteLog stores a build command's captured output in the `<out>.log`
// sidecar, or removes the sidecar when the output is empty: a .log file
// exists only when there is something worth replaying.
func WriteLog(out, logText string) error {
	path := out + ".log"
	if strings.TrimSpace(logText) == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing log file %s: %w", path, err)
		}
		return nil
	}
	return os.WriteFile(path, []byte(logText), 0o644)
}

// ReadLog reads back a previously stored `<out>.log` sidecar for frugality's
// "already compiled:" replay, returning "" if none exists.
func ReadLog(out string) string {
	data, err := os.ReadFile(out + ".log")
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteIncludeDeps writes the `<out>.deps` sidecar file used to remember
// which headers a compiled source pulled in, one path per line.
func WriteIncludeDeps(out string, headers []string) error {
	path := out + ".deps"
	var sb strings.Builder
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		sb.WriteString(h)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// ReadIncludeDeps reads back a previously written `<out>.deps` sidecar,
// returning (nil, false) if it doesn't exist yet (first build).
func ReadIncludeDeps(out string) ([]string, bool) {
	path := out + ".deps"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var deps []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			deps = append(deps, line)
		}
	}
	return deps, true
}
