// Package install implements bob's install engine: a script's top-level
// `install` map literal names source paths (plain relative paths or cookies returned by
// host class methods) and maps them to destination paths relative to the
// install prefix. A full install walks the whole map in declaration order;
// a per-cookie install, triggered right after a build step succeeds,
// installs only the one entry matching that cookie, and silently does
// nothing if the script didn't mention it at all.
package install

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bobsh/bob/internal/berr"
	"github.com/bobsh/bob/internal/script/value"
)

// Entry is one source-to-destination mapping out of the script's install map.
type Entry struct {
	Src string // absolute or project-relative source path, or a cookie path
	Dst string // destination path, relative to the install prefix
}

// Map is the install map in insertion order, matching value.Value's own
// map ordering guarantee.
type Map struct {
	Entries []Entry
}

// FromValue builds a Map from the script-level `install` value, which must
// be KindNone (meaning "no install map declared") or a KindMap of
// string→string. A nil Map (ok=false) means "no install map", a warning,
// not an error.
func FromValue(v *value.Value) (m *Map, ok bool, err error) {
	if v == nil || v.Kind == value.KindNone {
		return nil, false, nil
	}
	if v.Kind != value.KindMap {
		return nil, false, berr.New(berr.Script, "top-level 'install' must be a map, got %s", v.TypeStr())
	}
	if len(v.Map) == 0 {
		return nil, false, nil
	}

	out := &Map{}
	for _, e := range v.Map {
		if e.Key.Kind != value.KindString || e.Val.Kind != value.KindString {
			return nil, false, berr.New(berr.Script, "'install' map entries must be string to string")
		}
		out.Entries = append(out.Entries, Entry{Src: e.Key.Str, Dst: e.Val.Str})
	}
	return out, true, nil
}

// All performs a full install: every entry in m, in order, copied from its
// resolved absolute source path into prefix/<dst>, creating missing parent
// directories as needed.
func All(projectDir, prefix string, m *Map) error {
	for _, e := range m.Entries {
		if err := installOne(projectDir, prefix, e); err != nil {
			return err
		}
	}
	return nil
}

// Cookie performs a per-cookie install: if cookiePath matches some entry's
// Src, install it; otherwise this is a silent no-op. executable marks the
// destination file as executable after copying, for Go.build's installed
// binaries.
func Cookie(cookiePath, projectDir, prefix string, m *Map, executable bool) error {
	if m == nil {
		return nil
	}
	for _, e := range m.Entries {
		if e.Src != cookiePath {
			continue
		}
		if err := installOne(projectDir, prefix, e); err != nil {
			return err
		}
		if executable {
			dst := filepath.Join(prefix, e.Dst)
			if err := os.Chmod(dst, 0o755); err != nil {
				return berr.Wrap(berr.Host, err, "marking %s executable", dst)
			}
		}
		return nil
	}
	return nil
}

func installOne(projectDir, prefix string, e Entry) error {
	src := e.Src
	if !filepath.IsAbs(src) {
		src = filepath.Join(projectDir, src)
	}
	dst := filepath.Join(prefix, e.Dst)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return berr.Wrap(berr.Host, err, "creating install directory for %s", dst)
	}

	info, err := os.Stat(src)
	if err != nil {
		return berr.Wrap(berr.Host, err, "installing %s: source not found", src)
	}

	if info.IsDir() {
		if err := os.RemoveAll(dst); err != nil {
			return berr.Wrap(berr.Host, err, "removing existing install destination %s", dst)
		}
		if err := copyDir(src, dst); err != nil {
			return berr.Wrap(berr.Host, err, "installing directory %s", src)
		}
		return SetOwner(dst)
	}

	if err := copyFile(src, dst, info.Mode()); err != nil {
		return berr.Wrap(berr.Host, err, "installing %s", src)
	}
	return SetOwner(dst)
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
