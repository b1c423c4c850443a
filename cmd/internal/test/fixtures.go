package test

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
	"ocm.software/open-component-model/vxpack/internal/project"
)

// WriteProject writes descriptor as the project file of a new temporary
// project and returns the project directory.
func WriteProject(t *testing.T, descriptor string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.DefaultFileName), []byte(descriptor), 0o644))
	return dir
}

// WriteFiles creates files below dir, keys are slash separated paths.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	r := require.New(t)
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		r.NoError(os.MkdirAll(filepath.Dir(p), 0o755))
		r.NoError(os.WriteFile(p, []byte(content), 0o644))
	}
}

// WriteJar writes a zip archive with the given entries to path.
func WriteJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	r := require.New(t)
	r.NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	r.NoError(err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		r.NoError(err)
		_, err = w.Write([]byte(content))
		r.NoError(err)
	}
	r.NoError(zw.Close())
	r.NoError(f.Close())
}

// Install places a jar for coordinate into the maven layout below repo.
func Install(t *testing.T, repo, coord string, entries map[string]string) string {
	t.Helper()
	c, err := coordinate.Parse(coord)
	require.NoError(t, err)
	path := filepath.Join(repo, filepath.FromSlash(c.RepositoryPath()))
	WriteJar(t, path, entries)
	return path
}

// ReadJar returns all entries of the zip archive at path.
func ReadJar(t *testing.T, path string) map[string]string {
	t.Helper()
	r := require.New(t)
	zr, err := zip.OpenReader(path)
	r.NoError(err)
	defer zr.Close()
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		r.NoError(err)
		data := make([]byte, f.UncompressedSize64)
		_, err = io.ReadFull(rc, data)
		r.NoError(err)
		r.NoError(rc.Close())
		out[f.Name] = string(data)
	}
	return out
}
