package pkgformat

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tar.gz")
	require.NoError(t, err)
	assert.Equal(t, TarGz, f)

	f, err = ParseFormat("TGZ")
	require.NoError(t, err)
	assert.Equal(t, TarGz, f)

	f, err = ParseFormat("ZIP")
	require.NoError(t, err)
	assert.Equal(t, Zip, f)

	_, err = ParseFormat("rar")
	require.Error(t, err)
}

func TestDefaultExtAndOutFileName(t *testing.T) {
	assert.Equal(t, "tar.gz", TarGz.DefaultExt())
	assert.Equal(t, "zip", Zip.DefaultExt())
	assert.Equal(t, "widget.tar.gz", OutFileName("widget", TarGz))
	assert.Equal(t, "widget.zip", OutFileName("widget", Zip))
}

func seedPrefix(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "app"), []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hello\n"), 0o644))
	return dir
}

func TestArchiveTarGzContainsEveryFile(t *testing.T) {
	prefix := seedPrefix(t)
	out := filepath.Join(t.TempDir(), "widget.tar.gz")

	require.NoError(t, Archive(TarGz, prefix, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}

	assert.Contains(t, names, "README")
	assert.Contains(t, names, filepath.ToSlash(filepath.Join("bin", "app")))
}

func TestArchiveZipContainsEveryFile(t *testing.T) {
	prefix := seedPrefix(t)
	out := filepath.Join(t.TempDir(), "widget.zip")

	require.NoError(t, Archive(Zip, prefix, out))

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Contains(t, names, "README")
	assert.Contains(t, names, filepath.ToSlash(filepath.Join("bin", "app")))
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "myproject", DefaultName("/home/user/myproject"))
}
