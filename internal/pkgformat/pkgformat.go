// Package pkgformat implements the `package <format> [name] [out-file]`
// CLI instruction: it archives an install prefix into a distributable
// file. Supported formats are tar.gz and zip, both built on the standard
// library's archive/tar, archive/zip, and compress/gzip.
package pkgformat

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobsh/bob/internal/berr"
)

// Format identifies a supported archive format.
type Format int

const (
	TarGz Format = iota
	Zip
)

// ParseFormat maps a `package` instruction's format argument to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "tar.gz", "tgz":
		return TarGz, nil
	case "zip":
		return Zip, nil
	default:
		return 0, berr.New(berr.Host, "unknown package format %q (supported: tar.gz, zip)", s)
	}
}

// DefaultExt returns the conventional extension for f.
func (f Format) DefaultExt() string {
	if f == Zip {
		return "zip"
	}
	return "tar.gz"
}

// Archive walks prefixDir and writes every file under it into outFile in
// format f, with archive member paths relative to prefixDir (so the
// archive's root is the install prefix's root, not an absolute path).
func Archive(f Format, prefixDir, outFile string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return berr.Wrap(berr.System, err, "creating %s", filepath.Dir(outFile))
	}
	out, err := os.Create(outFile)
	if err != nil {
		return berr.Wrap(berr.System, err, "creating %s", outFile)
	}
	defer out.Close()

	switch f {
	case TarGz:
		return archiveTarGz(prefixDir, out)
	case Zip:
		return archiveZip(prefixDir, out)
	default:
		return berr.New(berr.Host, "unsupported package format %d", f)
	}
}

func archiveTarGz(prefixDir string, out io.Writer) error {
	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	return walkPrefix(prefixDir, func(rel string, info os.FileInfo, abs string) error {
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(abs)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

func archiveZip(prefixDir string, out io.Writer) error {
	zw := zip.NewWriter(out)
	defer zw.Close()

	return walkPrefix(prefixDir, func(rel string, info os.FileInfo, abs string) error {
		if info.IsDir() {
			return nil
		}
		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		f, err := os.Open(abs)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}

func walkPrefix(prefixDir string, visit func(rel string, info os.FileInfo, abs string) error) error {
	return filepath.Walk(prefixDir, func(abs string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if abs == prefixDir {
			return nil
		}
		rel, err := filepath.Rel(prefixDir, abs)
		if err != nil {
			return err
		}
		return visit(filepath.ToSlash(rel), info, abs)
	})
}

// DefaultName derives a package name from prefixDir's parent project
// directory, used when the `package` instruction's optional name argument
// is omitted.
func DefaultName(projectDir string) string {
	return filepath.Base(projectDir)
}

// OutFileName joins name and f's default extension the way `fmt.Sprintf`
// composes any other bob path, used when the instruction's optional
// out-file argument is omitted.
func OutFileName(name string, f Format) string {
	return fmt.Sprintf("%s.%s", name, f.DefaultExt())
}
