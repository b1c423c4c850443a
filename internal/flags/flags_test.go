package flags_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/vxpack/internal/flags/enum"
	"ocm.software/open-component-model/vxpack/internal/flags/file"
)

func TestEnumFlag(t *testing.T) {
	r := require.New(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	enum.VarP(fs, "output", "o", []string{"table", "json", "yaml"}, "output format")

	v, err := enum.Get(fs, "output")
	r.NoError(err)
	r.Equal("table", v)

	r.NoError(fs.Parse([]string{"-o", "json"}))
	v, err = enum.Get(fs, "output")
	r.NoError(err)
	r.Equal("json", v)

	r.Error(fs.Parse([]string{"--output", "xml"}))

	_, err = enum.Get(fs, "missing")
	r.Error(err)

	fs.String("plain", "", "")
	_, err = enum.Get(fs, "plain")
	r.Error(err)
}

func TestFileFlag(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, "vxpack.yaml")
	r.NoError(os.WriteFile(existing, []byte("artifact: demo\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	file.VarP(fs, "project", "p", filepath.Join(dir, "absent.yaml"), "project file")

	f, err := file.Get(fs, "project")
	r.NoError(err)
	r.False(f.Exists())

	r.NoError(fs.Parse([]string{"-p", existing}))
	r.True(f.Exists())
	r.Equal(existing, f.String())

	r.Error(fs.Parse([]string{"-p", dir}))
}
