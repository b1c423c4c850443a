package stop_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/vxpack/cmd/internal/test"
	vxctx "ocm.software/open-component-model/vxpack/internal/context"
	"ocm.software/open-component-model/vxpack/internal/launch"
)

func TestStopErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		args    []string
		wantErr error
	}{
		{
			name:    "nothing started",
			wantErr: launch.ErrNotRunning,
		},
		{
			name: "garbage pid file",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, launch.PIDFileName), []byte("not-a-pid"), 0o644))
			},
			wantErr: launch.ErrInvalidPID,
		},
		{
			name:    "launcher needs a project",
			args:    []string{"--use-launcher"},
			wantErr: vxctx.ErrNoProject,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dir)
			}
			args := append([]string{"--working-directory", dir, "stop"}, tt.args...)
			_, err := test.VXPack(t, test.WithArgs(args...))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStopUsesProjectWorkDir(t *testing.T) {
	r := require.New(t)
	dir := test.WriteProject(t, "name: demo\nrun:\n  workDir: work\n")
	r.NoError(os.MkdirAll(filepath.Join(dir, "work"), 0o755))
	r.NoError(os.WriteFile(filepath.Join(dir, launch.PIDFileName), []byte("1"), 0o644))

	_, err := test.VXPack(t, test.WithArgs("--working-directory", dir, "stop"))
	r.ErrorIs(err, launch.ErrNotRunning)
	r.FileExists(filepath.Join(dir, launch.PIDFileName))
}
