package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testLauncher = "io.vertx.core.Launcher"
	testVerticle = "org.example.demo.MainVerticle"
)

func TestAssembleUnionAndLastWriterWins(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	primary := writeZip(t, filepath.Join(dir, "app.jar"),
		file{"org/example/Main.class", "main"},
		file{"shared.txt", "primary"},
		file{ManifestPath, "Manifest-Version: 1.0\r\nMain-Class: org.example.Old\r\n\r\n"},
	)
	direct := writeZip(t, filepath.Join(dir, "direct.jar"),
		file{"direct.txt", "d"},
		file{"shared.txt", "direct"},
	)
	libDir := filepath.Join(dir, "lib-dir")
	r.NoError(os.MkdirAll(filepath.Join(libDir, "nested"), 0o755))
	r.NoError(os.WriteFile(filepath.Join(libDir, "nested", "dir.txt"), []byte("from dir"), 0o644))
	transitive := writeTar(t, filepath.Join(dir, "transitive.tar"),
		file{"transitive.txt", "t"},
		file{"shared.txt", "transitive"},
	)

	res, err := Assemble(t.Context(), AssembleRequest{
		Primary:         primary,
		Direct:          []string{direct, libDir},
		Transitive:      []string{transitive},
		OutputDir:       filepath.Join(dir, "out"),
		BaseName:        "demo",
		Launcher:        testLauncher,
		ApplicationUnit: testVerticle,
	})
	r.NoError(err)
	r.Equal(filepath.Join(dir, "out", "demo-fat.jar"), res.Path)
	r.NotEmpty(res.Digest)
	r.Equal(6, res.Entries)

	content := readZip(t, res.Path)
	r.Len(content, 6)
	r.Equal("main", content["org/example/Main.class"])
	r.Equal("d", content["direct.txt"])
	r.Equal("from dir", content["nested/dir.txt"])
	r.Equal("t", content["transitive.txt"])
	r.Equal("transitive", content["shared.txt"])

	m, err := ParseManifest([]byte(content[ManifestPath]))
	r.NoError(err)
	r.Equal(testLauncher, m.MainClass)
	r.Equal(testVerticle, m.MainVerticle)

	fat, err := Open(t.Context(), res.Path)
	r.NoError(err)
	r.Equal(ManifestPath, fat.Names()[0])
}

func TestAssembleIsIdempotent(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	primary := writeZip(t, filepath.Join(dir, "app.jar"), file{"Main.class", "main"})
	dep := writeZip(t, filepath.Join(dir, "dep.jar"), file{"lib/Lib.class", "lib"})

	req := AssembleRequest{
		Primary:   primary,
		Direct:    []string{dep},
		OutputDir: filepath.Join(dir, "out"),
		Launcher:  testLauncher,
	}
	first, err := Assemble(t.Context(), req)
	r.NoError(err)
	firstBytes, err := os.ReadFile(first.Path)
	r.NoError(err)

	second, err := Assemble(t.Context(), req)
	r.NoError(err)
	secondBytes, err := os.ReadFile(second.Path)
	r.NoError(err)

	r.Equal(filepath.Join(dir, "out", "app-fat.jar"), first.Path)
	r.Equal(first.Digest, second.Digest)
	r.Equal(firstBytes, secondBytes)

	m, err := ParseManifest([]byte(readZip(t, first.Path)[ManifestPath]))
	r.NoError(err)
	r.Empty(m.MainVerticle)
}

func TestAssemblePreconditions(t *testing.T) {
	dir := t.TempDir()
	primary := writeZip(t, filepath.Join(dir, "app.jar"), file{"Main.class", "main"})

	tests := []struct {
		name    string
		req     AssembleRequest
		wantErr error
	}{
		{
			name:    "missing launcher",
			req:     AssembleRequest{Primary: primary, OutputDir: dir},
			wantErr: ErrMissingLauncher,
		},
		{
			name:    "empty primary",
			req:     AssembleRequest{OutputDir: dir, Launcher: testLauncher},
			wantErr: ErrMissingPrimary,
		},
		{
			name:    "primary does not exist",
			req:     AssembleRequest{Primary: filepath.Join(dir, "nope.jar"), OutputDir: dir, Launcher: testLauncher},
			wantErr: ErrMissingPrimary,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			_, err := Assemble(t.Context(), tt.req)
			r.ErrorIs(err, tt.wantErr)
			r.NoFileExists(filepath.Join(dir, "app-fat.jar"))
		})
	}
}

func TestAssembleFailsOnUnreadableDependency(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	primary := writeZip(t, filepath.Join(dir, "app.jar"), file{"Main.class", "main"})
	bogus := filepath.Join(dir, "bogus.jar")
	r.NoError(os.WriteFile(bogus, []byte("definitely not an archive"), 0o644))

	_, err := Assemble(t.Context(), AssembleRequest{
		Primary:   primary,
		Direct:    []string{bogus},
		OutputDir: dir,
		Launcher:  testLauncher,
	})
	r.ErrorIs(err, ErrUnsupportedFormat)
	r.NoFileExists(filepath.Join(dir, "app-fat.jar"))
}

func TestPack(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	r.NoError(os.MkdirAll(filepath.Join(classes, "org", "example"), 0o755))
	r.NoError(os.WriteFile(filepath.Join(classes, "org", "example", "Main.class"), []byte("main"), 0o644))
	resources := filepath.Join(dir, "resources")
	r.NoError(os.MkdirAll(resources, 0o755))
	r.NoError(os.WriteFile(filepath.Join(resources, "app.properties"), []byte("k=v"), 0o644))

	target := filepath.Join(dir, "target", "app.jar")
	res, err := Pack(t.Context(), target, resources, classes, filepath.Join(dir, "missing"))
	r.NoError(err)
	r.Equal(3, res.Entries)

	content := readZip(t, target)
	r.Equal("main", content["org/example/Main.class"])
	r.Equal("k=v", content["app.properties"])
	r.Contains(content, ManifestPath)

	_, err = Pack(t.Context(), filepath.Join(dir, "empty.jar"), filepath.Join(dir, "missing"))
	r.ErrorIs(err, ErrMissingPrimary)
}
