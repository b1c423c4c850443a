package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/vxpack/internal/coordinate"
)

const descriptor = `
name: demo
version: 1.0.0
verticle: org.example.demo.MainVerticle
build:
  relocation: combine
redeploy:
  enabled: true
  patterns:
    - src/main/java/**/*.java
repository: repo
dependencies:
  - coordinate: io.vertx:vertx-core:4.5.0
    dependencies:
      - coordinate: io.netty:netty-common:4.1.100.Final
        scope: runtime
  - coordinate: junit:junit:4.13.2
    scope: test
logging:
  rules:
    - level: debug
      conditions:
        - realm: resolver
`

func TestLoad(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	r.NoError(os.WriteFile(path, []byte(descriptor), 0o644))

	p, err := Load(path)
	r.NoError(err)

	r.Equal("demo", p.Name)
	r.Equal(DefaultLauncher, p.Launcher)
	r.Equal("org.example.demo.MainVerticle", p.Verticle)
	r.Equal("combine", p.Build.Relocation)
	r.True(p.Redeploy.Enabled)
	r.Equal([]string{"src/main/java/**/*.java"}, p.Redeploy.Patterns)
	r.Equal(filepath.Join(dir, "target", "demo-1.0.0.jar"), p.PrimaryPath())
	r.Equal(filepath.Join(dir, "target", "classes"), p.ClassesDir())
	r.Equal([]string{filepath.Join(dir, "src", "main", "resources")}, p.ResourceDirs())
	r.Equal(filepath.Join(dir, "target"), p.OutputDir())
	r.Equal(dir, p.WorkDir())

	root, err := p.RepositoryRoot()
	r.NoError(err)
	r.Equal(filepath.Join(dir, "repo"), root)

	r.NotNil(p.Logging)
	r.Len(p.Logging.Rules, 1)

	deps, err := p.CoordinateDependencies()
	r.NoError(err)
	r.Len(deps, 2)
	r.Equal(coordinate.MustParse("io.vertx:vertx-core:4.5.0"), deps[0].Coordinate)
	r.Equal(coordinate.ScopeCompile, deps[0].Scope)
	r.Len(deps[0].Transitive, 1)
	r.Equal(coordinate.ScopeRuntime, deps[0].Transitive[0].Scope)
	r.Equal(coordinate.ScopeTest, deps[1].Scope)
}

func TestParseRejectsInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing name", data: "version: 1.0.0\n"},
		{name: "unknown field", data: "name: demo\nmainClass: x\n"},
		{name: "unknown scope", data: "name: demo\ndependencies:\n  - coordinate: a:b:1\n    scope: bundled\n"},
		{name: "bad coordinate", data: "name: demo\ndependencies:\n  - coordinate: a:b\n"},
		{name: "unsupported relocation", data: "name: demo\nbuild:\n  relocation: shade\n"},
		{name: "bad log level", data: "name: demo\nlogging:\n  defaultLevel: loud\n"},
		{name: "not yaml", data: "name: [demo\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			_, err := Parse([]byte(tt.data), t.TempDir())
			r.ErrorIs(err, ErrInvalidProject)
		})
	}
}

func TestDefaults(t *testing.T) {
	r := require.New(t)
	p, err := Parse([]byte("name: demo\n"), "/base")
	r.NoError(err)
	r.Equal("demo", p.Build.FinalName)
	r.Equal("jar", p.Build.Extension)
	r.Equal(DefaultConf, p.Run.Conf)
	r.NotNil(p.Redeploy)
	r.False(p.Redeploy.Enabled)

	before := *p
	p.Default()
	r.Equal(before, *p)
}

func TestSchema(t *testing.T) {
	r := require.New(t)
	raw, err := Schema()
	r.NoError(err)
	r.Contains(string(raw), `"additionalProperties":false`)
	r.NoError(Validate([]byte(`{"name":"demo"}`)))
}
